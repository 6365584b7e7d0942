// Package progress implements the launch-readiness scoring engine: a single
// authoritative score model plus a pure calculator over project snapshots.
// Every consumer (API, admin views, CLI) computes progress through the one
// Model instance built at startup; nothing else reimplements the arithmetic.
package progress

import (
	"math"

	"github.com/pkg/errors"

	"github.com/padhq/launchpad/core"
	"github.com/padhq/launchpad/core/project"
)

// weightTolerance absorbs float noise when checking that weights sum to 1.0.
const weightTolerance = 1e-9

// Model is the static score model: which fields count toward each section,
// the relative weight of each section in the overall score, and the item
// count required of the count-driven sections. Build exactly one per process
// with NewModel and share it.
type Model struct {
	weights   map[project.Section]float64
	scorable  map[project.Section][]project.FieldName
	minCounts map[project.Section]int
}

// NewModel builds and validates the score model from configuration. A weight
// set that does not sum to 1.0, a missing section, or a scorable field with
// no registry definition is a configuration fault: the error must abort
// startup, never be normalized away.
func NewModel(conf core.ProgressConfig) (*Model, error) {
	m := &Model{
		weights: map[project.Section]float64{
			project.SectionIDOMetrics:      conf.IDOMetricsWeight,
			project.SectionPlatformContent: conf.PlatformContentWeight,
			project.SectionFAQs:            conf.FAQsWeight,
			project.SectionQuizQuestions:   conf.QuizQuestionsWeight,
			project.SectionMarketingAssets: conf.MarketingAssetsWeight,
		},
		scorable: make(map[project.Section][]project.FieldName, 3),
		minCounts: map[project.Section]int{
			project.SectionFAQs:          conf.MinFAQCount,
			project.SectionQuizQuestions: conf.MinQuizQuestionCount,
		},
	}

	var sum float64
	for _, section := range project.AllSections {
		w, ok := m.weights[section]
		if !ok || w < 0 {
			return nil, errors.Errorf("score model: section %q has no valid weight", section)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, errors.Errorf("score model: section weights sum to %v, want 1.0", sum)
	}

	for _, section := range project.AllSections {
		defs := project.SectionFields(section)
		if defs == nil { // count-driven
			if m.minCounts[section] < 1 {
				return nil, errors.Errorf("score model: section %q needs a minimum count >= 1", section)
			}
			continue
		}
		fields := make([]project.FieldName, 0, len(defs))
		for _, def := range defs {
			if !def.Scored {
				continue
			}
			if def.Label == "" {
				return nil, errors.Errorf("score model: field %q of section %q has no label", def.Name, section)
			}
			fields = append(fields, def.Name)
		}
		if len(fields) == 0 {
			return nil, errors.Errorf("score model: section %q has no scorable fields", section)
		}
		m.scorable[section] = fields
	}
	return m, nil
}

// SectionWeight returns the section's share of the overall score.
func (m *Model) SectionWeight(section project.Section) float64 {
	return m.weights[section]
}

// ScorableFields returns the ordered field names that count toward the
// section's percentage; nil for count-driven sections.
func (m *Model) ScorableFields(section project.Section) []project.FieldName {
	return m.scorable[section]
}

// MinimumCount returns the item count required for 100% of a count-driven
// section; 0 for field-status sections.
func (m *Model) MinimumCount(section project.Section) int {
	return m.minCounts[section]
}
