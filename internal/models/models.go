package models

import "time"

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	Profile         *Profile   `json:"profile,omitempty"`
	Roles           []UserRole `json:"roles"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Profile struct {
	ID                string    `json:"id"`
	DisplayName       string    `json:"display_name"`
	Bio               string    `json:"bio"`
	SkillsTags        []string  `json:"skills_tags"`
	AvailabilityHours *int      `json:"availability_hours"`
	TrustLevel        int       `json:"trust_level"`
	TelegramChatID    int64     `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PublicProfile is the subset of a profile any signed-in user may see.
type PublicProfile struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"display_name"`
	Bio               string   `json:"bio,omitempty"`
	SkillsTags        []string `json:"skills_tags"`
	AvailabilityHours *int     `json:"availability_hours"`
	TrustLevel        int      `json:"trust_level"`
}

type Project struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Summary        string      `json:"summary"`
	Description    string      `json:"description"`
	Type           ProjectType `json:"type"`
	Visibility     Visibility  `json:"visibility"`
	CurrentStage   StageKey    `json:"current_stage"`
	StageUpdatedAt time.Time   `json:"stage_updated_at"`
	Tags           []string    `json:"tags"`
	CoverImageURL  string      `json:"cover_image_url,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type ProjectMember struct {
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Role      MemberRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

type OpenCall struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"project_id"`
	CreatedBy    string       `json:"created_by"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Commitment   string       `json:"commitment"`
	CallType     CallType     `json:"call_type"`
	LocationMode LocationMode `json:"location_mode"`
	Visibility   Visibility   `json:"visibility"`
	Status       CallStatus   `json:"status"`
	ApplyUntil   *time.Time   `json:"apply_until"`
	Tags         []string     `json:"tags"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Applications []Application `json:"applications,omitempty"`
}

type Application struct {
	ID          string            `json:"id"`
	OpenCallID  string            `json:"open_call_id"`
	ApplicantID string            `json:"applicant_id"`
	Message     string            `json:"message"`
	Links       []string          `json:"links"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	Applicant     *PublicProfile `json:"applicant,omitempty"`
	OpenCallTitle string         `json:"open_call_title,omitempty"`
	ProjectID     string         `json:"project_id,omitempty"`
	ProjectSlug   string         `json:"project_slug,omitempty"`
	ProjectTitle  string         `json:"project_title,omitempty"`
}

type Stage struct {
	Key         StageKey `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Position    int      `json:"position"`
}

type ChecklistItem struct {
	Title string `json:"title" yaml:"title"`
	Done  bool   `json:"done" yaml:"done"`
}

type StageChecklist struct {
	StageKey StageKey        `json:"stage_key"`
	Items    []ChecklistItem `json:"items"`
}

type Need struct {
	ID          string       `json:"id"`
	Category    NeedCategory `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StageKey    *StageKey    `json:"stage_key"`
	IsActive    bool         `json:"is_active"`
}

type Checkin struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	UserID          string    `json:"user_id"`
	WeekStart       string    `json:"week_start"`
	MainMetricName  string    `json:"main_metric_name"`
	MainMetricValue string    `json:"main_metric_value"`
	DeliverableLink string    `json:"deliverable_link"`
	Blocker         string    `json:"blocker"`
	HelpRequest     string    `json:"help_request"`
	CreatedAt       time.Time `json:"created_at"`
}

type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}

type Report struct {
	ID         string           `json:"id"`
	ReporterID string           `json:"reporter_id"`
	TargetType ReportTargetType `json:"target_type"`
	TargetID   string           `json:"target_id"`
	Reason     string           `json:"reason"`
	Status     ReportStatus     `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type ModerationStats struct {
	UserCount        int `json:"user_count"`
	ProjectCount     int `json:"project_count"`
	OpenCallCount    int `json:"open_call_count"`
	ApplicationCount int `json:"application_count"`
	OpenReportCount  int `json:"open_report_count"`
}

// Page is one range of an ordered listing together with the exact total.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
