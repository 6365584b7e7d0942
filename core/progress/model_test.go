package progress

import (
	"testing"

	"github.com/padhq/launchpad/core"
	"github.com/padhq/launchpad/core/project"
)

func Test_NewModel_validatesWeights(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.ProgressConfig)
		wantErr bool
	}{
		{name: "defaults are valid"},
		{
			name:   "float noise within tolerance",
			mutate: func(c *core.ProgressConfig) { c.IDOMetricsWeight = 0.35 + 1e-12 },
		},
		{
			name:    "sum below 1.0",
			mutate:  func(c *core.ProgressConfig) { c.FAQsWeight = 0.05 },
			wantErr: true,
		},
		{
			name:    "sum above 1.0",
			mutate:  func(c *core.ProgressConfig) { c.QuizQuestionsWeight = 0.5 },
			wantErr: true,
		},
		{
			name: "negative weight",
			mutate: func(c *core.ProgressConfig) {
				c.IDOMetricsWeight = -0.35
				c.PlatformContentWeight = 0.95
			},
			wantErr: true,
		},
		{
			name:    "zero minimum FAQ count",
			mutate:  func(c *core.ProgressConfig) { c.MinFAQCount = 0 },
			wantErr: true,
		},
		{
			name:    "zero minimum quiz count",
			mutate:  func(c *core.ProgressConfig) { c.MinQuizQuestionCount = 0 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := defaultConf()
			if tt.mutate != nil {
				tt.mutate(&conf)
			}
			_, err := NewModel(conf)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewModel() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_Model_scorableFieldsMatchRegistry(t *testing.T) {
	m := newTestModel(t)

	for _, section := range []project.Section{
		project.SectionIDOMetrics, project.SectionPlatformContent, project.SectionMarketingAssets,
	} {
		var want []project.FieldName
		for _, def := range project.SectionFields(section) {
			if def.Scored {
				want = append(want, def.Name)
			}
		}
		got := m.ScorableFields(section)
		if len(got) != len(want) {
			t.Fatalf("ScorableFields(%s) len = %d; want %d", section, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("ScorableFields(%s)[%d] = %s; want %s", section, i, got[i], want[i])
			}
		}
	}

	// the optional transaction id never counts, confirmed or not
	for _, name := range m.ScorableFields(project.SectionIDOMetrics) {
		if name == "transaction_id" {
			t.Error("transaction_id must not be scorable")
		}
	}
}
