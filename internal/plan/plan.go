// Package plan tracks the security plan checklist.
package plan

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/OCAP2/geotime/pkg/core"
)

// Preset is a protection level that checks a predefined subset of items.
type Preset string

const (
	PresetMax   Preset = "MAX"
	PresetMed   Preset = "MED"
	PresetMin   Preset = "MIN"
	PresetClear Preset = "CLEAR"
)

// ErrUnknownPreset is returned by ApplyPreset for an unsupported level.
var ErrUnknownPreset = errors.New("unknown preset")

var (
	medSections = []string{"precursor", "perimeter", "med_evac"}
	medChecks   = []string{"cs1", "cs4"}
	minChecks   = []string{"sec1", "evac1", "med1"}
)

var presetNotes = map[Preset]string{
	PresetMax: "Level 1 protocol applied.",
	PresetMed: "Level 2 protocol applied.",
	PresetMin: "Basic protocol applied.",
}

// Plan is a mutable checklist.
type Plan struct {
	mu       sync.RWMutex
	sections []core.PlanSection
}

// New creates a plan from a copy of sections.
func New(sections []core.PlanSection) *Plan {
	return &Plan{sections: cloneSections(sections)}
}

// Sections returns a copy of the checklist.
func (p *Plan) Sections() []core.PlanSection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSections(p.sections)
}

// Toggle flips a check. Unknown ids are ignored.
func (p *Plan) Toggle(sectionID, checkID string) bool {
	return p.edit(sectionID, checkID, func(c *core.PlanCheck) { c.Checked = !c.Checked })
}

// SetChecked sets a check explicitly.
func (p *Plan) SetChecked(sectionID, checkID string, checked bool) bool {
	return p.edit(sectionID, checkID, func(c *core.PlanCheck) { c.Checked = checked })
}

// SetNotes replaces the notes of a check.
func (p *Plan) SetNotes(sectionID, checkID, notes string) bool {
	return p.edit(sectionID, checkID, func(c *core.PlanCheck) { c.Notes = notes })
}

func (p *Plan) edit(sectionID, checkID string, fn func(*core.PlanCheck)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.sections {
		if p.sections[i].ID != sectionID {
			continue
		}
		for j := range p.sections[i].Checks {
			if p.sections[i].Checks[j].ID == checkID {
				fn(&p.sections[i].Checks[j])
				return true
			}
		}
	}
	return false
}

// Completion returns the rounded percentage of checked items.
func (p *Plan) Completion() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total, checked := 0, 0
	for _, sec := range p.sections {
		for _, c := range sec.Checks {
			total++
			if c.Checked {
				checked++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(checked) / float64(total) * 100))
}

// ApplyPreset checks items according to level. Existing notes are kept,
// empty ones receive the preset's note. CLEAR unchecks everything and wipes
// notes.
func (p *Plan) ApplyPreset(level Preset) error {
	level = Preset(strings.ToUpper(string(level)))
	switch level {
	case PresetMax, PresetMed, PresetMin, PresetClear:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPreset, level)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.sections {
		sec := &p.sections[i]
		for j := range sec.Checks {
			c := &sec.Checks[j]
			if level == PresetClear {
				c.Checked = false
				c.Notes = ""
				continue
			}
			c.Checked = presetChecks(level, sec.ID, c.ID)
			if c.Notes == "" {
				c.Notes = presetNotes[level]
			}
		}
	}
	return nil
}

func presetChecks(level Preset, sectionID, checkID string) bool {
	switch level {
	case PresetMax:
		return true
	case PresetMed:
		return slices.Contains(medSections, sectionID) || slices.Contains(medChecks, checkID)
	case PresetMin:
		return slices.Contains(minChecks, checkID)
	}
	return false
}

func cloneSections(sections []core.PlanSection) []core.PlanSection {
	out := make([]core.PlanSection, len(sections))
	for i, sec := range sections {
		sec.Checks = append([]core.PlanCheck(nil), sec.Checks...)
		out[i] = sec
	}
	return out
}
