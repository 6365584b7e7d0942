package progress

import (
	"fmt"
	"math"

	"github.com/padhq/launchpad/core/project"
)

// Result is the computed launch-readiness of one project snapshot. It is a
// derived view: recomputed on every call, never persisted as authoritative
// state.
type Result struct {
	Overall   int                         `json:"overall"`
	BySection map[project.Section]int     `json:"by_section"`
	Missing   map[project.Section][]string `json:"missing_fields"`
}

// Compute scores a project snapshot against the model. It is pure and
// deterministic: no I/O, no mutation of the snapshot, identical output for
// identical input. Absent sub-records score 0% with every scorable field
// reported missing; a partially-empty snapshot is the expected common case,
// not an error.
func (m *Model) Compute(snap project.Snapshot) Result {
	res := Result{
		BySection: make(map[project.Section]int, len(project.AllSections)),
		Missing:   make(map[project.Section][]string, len(project.AllSections)),
	}

	var weighted float64
	for _, section := range project.AllSections {
		var pct int
		var missing []string

		switch section {
		case project.SectionFAQs:
			pct, missing = m.computeCount(section, len(snap.FAQs), "FAQs")
		case project.SectionQuizQuestions:
			pct, missing = m.computeCount(section, len(snap.QuizQuestions), "quiz questions")
		default:
			pct, missing = m.computeFields(section, snap.FieldMap(section))
		}

		res.BySection[section] = pct
		if missing != nil {
			res.Missing[section] = missing
		}
		weighted += m.weights[section] * float64(pct)
	}

	res.Overall = roundHalfUp(weighted)
	return res
}

// computeFields scores a field-status section: the share of scorable fields
// marked confirmed. Missing fields are reported as labels in declaration
// order, not in the snapshot's map order.
func (m *Model) computeFields(section project.Section, fields map[project.FieldName]project.Field) (int, []string) {
	scorable := m.scorable[section]

	var confirmed int
	var missing []string
	for _, name := range scorable {
		if fld, ok := fields[name]; ok && fld.Status == project.StatusConfirmed {
			confirmed++
			continue
		}
		label, _ := project.FieldLabel(section, name)
		missing = append(missing, label)
	}
	return roundHalfUp(100 * float64(confirmed) / float64(len(scorable))), missing
}

// computeCount scores a count-driven section: linear in item count up to the
// configured minimum, then plateaued at 100%. Missing is a single synthetic
// shortfall entry since these sections have no fixed field identity.
func (m *Model) computeCount(section project.Section, count int, noun string) (int, []string) {
	min := m.minCounts[section]
	if count >= min {
		return 100, nil
	}
	missing := []string{fmt.Sprintf("need %d more %s", min-count, noun)}
	return roundHalfUp(100 * float64(count) / float64(min)), missing
}

// roundHalfUp rounds to the nearest integer, halves away from zero. Fixed at
// both the section and overall stage; repeated rounding of weighted sums is a
// classic source of off-by-one drift between displays.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
