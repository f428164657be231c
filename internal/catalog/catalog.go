// Package catalog loads the stage texts, stage checklists and the needs
// catalog from a YAML file and writes them to the store.
package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/stage"
)

type Catalog struct {
	Stages []Stage `yaml:"stages"`
	Needs  []Need  `yaml:"needs"`
}

type Stage struct {
	Key         models.StageKey        `yaml:"key"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Checklist   []models.ChecklistItem `yaml:"checklist"`
}

type Need struct {
	ID          string              `yaml:"id"`
	Category    models.NeedCategory `yaml:"category"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Stage       models.StageKey     `yaml:"stage"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	seenStages := make(map[models.StageKey]bool)
	for _, s := range c.Stages {
		if !stage.Valid(s.Key) {
			return fmt.Errorf("catalog: unknown stage %q", s.Key)
		}
		if seenStages[s.Key] {
			return fmt.Errorf("catalog: stage %q listed twice", s.Key)
		}
		seenStages[s.Key] = true
	}

	seenNeeds := make(map[string]bool)
	for _, n := range c.Needs {
		if n.ID == "" || n.Title == "" {
			return fmt.Errorf("catalog: need without id or title")
		}
		if seenNeeds[n.ID] {
			return fmt.Errorf("catalog: need %q listed twice", n.ID)
		}
		seenNeeds[n.ID] = true
		if !n.Category.Valid() {
			return fmt.Errorf("catalog: need %q has unknown category %q", n.ID, n.Category)
		}
		if n.Stage != "" && !stage.Valid(n.Stage) {
			return fmt.Errorf("catalog: need %q has unknown stage %q", n.ID, n.Stage)
		}
	}
	return nil
}

// Store receives the catalog contents.
type Store interface {
	UpdateStageText(ctx context.Context, key models.StageKey, title, description string) error
	UpsertChecklist(ctx context.Context, key models.StageKey, items []models.ChecklistItem) error
	UpsertNeed(ctx context.Context, n models.Need) error
}

// Seed writes the catalog to store. It is safe to run on every start:
// entries are upserted by key and nothing is deleted.
func (c *Catalog) Seed(ctx context.Context, store Store) error {
	for _, s := range c.Stages {
		title := s.Title
		if title == "" {
			title = stage.Label(s.Key)
		}
		if err := store.UpdateStageText(ctx, s.Key, title, s.Description); err != nil {
			return fmt.Errorf("seed stage %s: %w", s.Key, err)
		}
		if err := store.UpsertChecklist(ctx, s.Key, s.Checklist); err != nil {
			return fmt.Errorf("seed checklist %s: %w", s.Key, err)
		}
	}
	for _, n := range c.Needs {
		if err := store.UpsertNeed(ctx, n.model()); err != nil {
			return fmt.Errorf("seed need %s: %w", n.ID, err)
		}
	}
	return nil
}

func (n Need) model() models.Need {
	m := models.Need{
		ID:          n.ID,
		Category:    n.Category,
		Title:       n.Title,
		Description: n.Description,
		IsActive:    n.Active == nil || *n.Active,
	}
	if n.Stage != "" {
		k := n.Stage
		m.StageKey = &k
	}
	return m
}
