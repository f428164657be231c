// Package stage holds the fixed project lifecycle and the rules for moving
// a project between its stages.
package stage

import (
	"fmt"

	"github.com/elmasnur/nurcombinator/internal/models"
)

// Order is the lifecycle in its canonical sequence.
var Order = []models.StageKey{
	models.StageNiyetIstikamet,
	models.StageTaslakCerceve,
	models.StageIlkYayin,
	models.StageKullaniciyaAcilim,
	models.StageIstikrarSureklilik,
	models.StageYayginlastirma,
	models.StageArsivKurumsallasma,
}

var Labels = map[models.StageKey]string{
	models.StageNiyetIstikamet:     "Niyet & İstikamet",
	models.StageTaslakCerceve:      "Taslak & Çerçeve",
	models.StageIlkYayin:           "İlk Yayın",
	models.StageKullaniciyaAcilim:  "Kullanıcıya Açılım",
	models.StageIstikrarSureklilik: "İstikrar & Süreklilik",
	models.StageYayginlastirma:     "Yaygınlaştırma",
	models.StageArsivKurumsallasma: "Arşiv & Kurumsallaşma",
}

// Initial is the stage every new project starts in.
const Initial = models.StageNiyetIstikamet

// Index returns the position of k in Order, or -1 for an unknown key.
func Index(k models.StageKey) int {
	for i, s := range Order {
		if s == k {
			return i
		}
	}
	return -1
}

func Valid(k models.StageKey) bool {
	return Index(k) >= 0
}

func Label(k models.StageKey) string {
	if l, ok := Labels[k]; ok {
		return l
	}
	return string(k)
}

// Policy decides which stage transitions are allowed. Both keys are known
// stages when Allowed is called.
type Policy interface {
	Name() string
	Allowed(from, to models.StageKey) bool
}

type freePolicy struct{}

func (freePolicy) Name() string { return "free" }

func (freePolicy) Allowed(_, _ models.StageKey) bool { return true }

type forwardPolicy struct{}

func (forwardPolicy) Name() string { return "forward" }

func (forwardPolicy) Allowed(from, to models.StageKey) bool {
	return Index(to) >= Index(from)
}

type adjacentPolicy struct{}

func (adjacentPolicy) Name() string { return "adjacent" }

func (adjacentPolicy) Allowed(from, to models.StageKey) bool {
	d := Index(to) - Index(from)
	return d >= -1 && d <= 1
}

var (
	Free     Policy = freePolicy{}
	Forward  Policy = forwardPolicy{}
	Adjacent Policy = adjacentPolicy{}
)

// ParsePolicy maps a config value to a Policy. An empty name selects Free.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "free":
		return Free, nil
	case "forward":
		return Forward, nil
	case "adjacent":
		return Adjacent, nil
	}
	return nil, fmt.Errorf("unknown stage policy %q", name)
}

// CanTransition reports whether p permits moving from one stage to another.
// Unknown keys are never allowed.
func CanTransition(p Policy, from, to models.StageKey) bool {
	if !Valid(from) || !Valid(to) {
		return false
	}
	return p.Allowed(from, to)
}

// Progress counts completed checklist items.
func Progress(items []models.ChecklistItem) (done, total int) {
	for _, it := range items {
		if it.Done {
			done++
		}
	}
	return done, len(items)
}
