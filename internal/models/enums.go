package models

type StageKey string

const (
	StageNiyetIstikamet     StageKey = "niyet_istikamet"
	StageTaslakCerceve      StageKey = "taslak_cerceve"
	StageIlkYayin           StageKey = "ilk_yayin"
	StageKullaniciyaAcilim  StageKey = "kullaniciya_acilim"
	StageIstikrarSureklilik StageKey = "istikrar_sureklilik"
	StageYayginlastirma     StageKey = "yayinginlastirma"
	StageArsivKurumsallasma StageKey = "arsiv_kurumsallasma"
)

type ProjectType string

const (
	ProjectTypeContent    ProjectType = "content"
	ProjectTypeApp        ProjectType = "app"
	ProjectTypeCommunity  ProjectType = "community"
	ProjectTypeOpenSource ProjectType = "open_source"
	ProjectTypeEducation  ProjectType = "education"
	ProjectTypeMedia      ProjectType = "media"
	ProjectTypeOther      ProjectType = "other"
)

var ProjectTypeLabels = map[ProjectType]string{
	ProjectTypeContent:    "İçerik",
	ProjectTypeApp:        "Uygulama",
	ProjectTypeCommunity:  "Topluluk",
	ProjectTypeOpenSource: "Açık Kaynak",
	ProjectTypeEducation:  "Eğitim",
	ProjectTypeMedia:      "Medya",
	ProjectTypeOther:      "Diğer",
}

func (t ProjectType) Valid() bool {
	_, ok := ProjectTypeLabels[t]
	return ok
}

type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityVerifiedOnly Visibility = "verified_only"
	VisibilityPrivate      Visibility = "private"
)

var VisibilityLabels = map[Visibility]string{
	VisibilityPublic:       "Herkese Açık",
	VisibilityVerifiedOnly: "Doğrulanmış Üyeler",
	VisibilityPrivate:      "Gizli",
}

func (v Visibility) Valid() bool {
	_, ok := VisibilityLabels[v]
	return ok
}

type CallType string

const (
	CallTypeCore      CallType = "core"
	CallTypeVolunteer CallType = "volunteer"
	CallTypeShortTask CallType = "short_task"
	CallTypeAdvisor   CallType = "advisor"
)

var CallTypeLabels = map[CallType]string{
	CallTypeCore:      "Çekirdek Ekip",
	CallTypeVolunteer: "Gönüllü",
	CallTypeShortTask: "Kısa Görev",
	CallTypeAdvisor:   "Danışman",
}

func (t CallType) Valid() bool {
	_, ok := CallTypeLabels[t]
	return ok
}

type LocationMode string

const (
	LocationRemote LocationMode = "remote"
	LocationOnsite LocationMode = "onsite"
	LocationHybrid LocationMode = "hybrid"
)

var LocationModeLabels = map[LocationMode]string{
	LocationRemote: "Uzaktan",
	LocationOnsite: "Yerinde",
	LocationHybrid: "Hibrit",
}

func (m LocationMode) Valid() bool {
	_, ok := LocationModeLabels[m]
	return ok
}

type CallStatus string

const (
	CallOpen   CallStatus = "open"
	CallPaused CallStatus = "paused"
	CallClosed CallStatus = "closed"
)

var CallStatusLabels = map[CallStatus]string{
	CallOpen:   "Açık",
	CallPaused: "Duraklatıldı",
	CallClosed: "Kapandı",
}

func (s CallStatus) Valid() bool {
	_, ok := CallStatusLabels[s]
	return ok
}

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
)

var ApplicationStatusLabels = map[ApplicationStatus]string{
	ApplicationSubmitted:   "Gönderildi",
	ApplicationShortlisted: "Ön Listede",
	ApplicationAccepted:    "Kabul Edildi",
	ApplicationRejected:    "Reddedildi",
	ApplicationWithdrawn:   "Geri Çekildi",
}

func (s ApplicationStatus) Valid() bool {
	_, ok := ApplicationStatusLabels[s]
	return ok
}

type MemberRole string

const (
	MemberOwner     MemberRole = "owner"
	MemberCore      MemberRole = "core"
	MemberVolunteer MemberRole = "volunteer"
	MemberEditor    MemberRole = "editor"
	MemberModerator MemberRole = "moderator"
)

var MemberRoleLabels = map[MemberRole]string{
	MemberOwner:     "Kurucu",
	MemberCore:      "Çekirdek Ekip",
	MemberVolunteer: "Gönüllü",
	MemberEditor:    "Editör",
	MemberModerator: "Moderatör",
}

func (r MemberRole) Valid() bool {
	_, ok := MemberRoleLabels[r]
	return ok
}

// UserRole is a platform-wide role, independent of project membership.
type UserRole string

const (
	UserRoleMember    UserRole = "member"
	UserRoleMentor    UserRole = "mentor"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleMember, UserRoleMentor, UserRoleModerator, UserRoleAdmin:
		return true
	}
	return false
}

type NeedCategory string

const (
	NeedMentorluk  NeedCategory = "mentorluk"
	NeedData       NeedCategory = "data"
	NeedNetworking NeedCategory = "networking"
	NeedOperasyon  NeedCategory = "operasyon"
	NeedIcerik     NeedCategory = "icerik"
	NeedTeknik     NeedCategory = "teknik"
	NeedHukuk      NeedCategory = "hukuk"
	NeedModerasyon NeedCategory = "moderasyon"
)

func (c NeedCategory) Valid() bool {
	switch c {
	case NeedMentorluk, NeedData, NeedNetworking, NeedOperasyon, NeedIcerik, NeedTeknik, NeedHukuk, NeedModerasyon:
		return true
	}
	return false
}

type ReportTargetType string

const (
	ReportTargetProject     ReportTargetType = "project"
	ReportTargetOpenCall    ReportTargetType = "open_call"
	ReportTargetApplication ReportTargetType = "application"
	ReportTargetProfile     ReportTargetType = "profile"
	ReportTargetMessage     ReportTargetType = "message"
)

func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetProject, ReportTargetOpenCall, ReportTargetApplication, ReportTargetProfile, ReportTargetMessage:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportReviewing ReportStatus = "reviewing"
	ReportResolved  ReportStatus = "resolved"
	ReportRejected  ReportStatus = "rejected"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportReviewing, ReportResolved, ReportRejected:
		return true
	}
	return false
}

const (
	NotificationNewApplication    = "new_application"
	NotificationApplicationStatus = "application_status"
)
