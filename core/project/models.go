package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/padhq/launchpad/core"
)

// Status is the per-field confirmation state.
type Status string

const (
	StatusConfirmed    Status = "confirmed"
	StatusNotConfirmed Status = "not_confirmed"
	StatusMightChange  Status = "might_change"
)

var AllStatuses = []Status{StatusConfirmed, StatusNotConfirmed, StatusMightChange}

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusNotConfirmed, StatusMightChange:
		return true
	}
	return false
}

// Section identifies one group of a project's launch-readiness record.
type Section string

const (
	SectionIDOMetrics      Section = "ido_metrics"
	SectionPlatformContent Section = "platform_content"
	SectionFAQs            Section = "faqs"
	SectionQuizQuestions   Section = "quiz_questions"
	SectionMarketingAssets Section = "marketing_assets"
)

// AllSections in declaration order; this order drives every rendered and
// scored output.
var AllSections = []Section{
	SectionIDOMetrics,
	SectionPlatformContent,
	SectionFAQs,
	SectionQuizQuestions,
	SectionMarketingAssets,
}

type FieldName string

// FieldDef declares one named field of a field-status section. Scored marks
// whether the field counts toward the section's completion percentage; the
// scoring and rendering layers both consume this registry, so the two can
// never diverge.
type FieldDef struct {
	Name   FieldName
	Label  string
	Scored bool
}

var (
	// IDOMetricFields: 22 scored fields + the optional transaction id.
	IDOMetricFields = []FieldDef{
		{Name: "ido_date", Label: "IDO Date", Scored: true},
		{Name: "tge_date", Label: "TGE Date", Scored: true},
		{Name: "registration_start_date", Label: "Registration Start Date", Scored: true},
		{Name: "registration_end_date", Label: "Registration End Date", Scored: true},
		{Name: "claim_date", Label: "Token Claim Date", Scored: true},
		{Name: "sale_price", Label: "Sale Price", Scored: true},
		{Name: "listing_price", Label: "Listing Price", Scored: true},
		{Name: "initial_market_cap", Label: "Initial Market Cap", Scored: true},
		{Name: "total_raise", Label: "Total Raise", Scored: true},
		{Name: "max_allocation", Label: "Max Allocation", Scored: true},
		{Name: "min_allocation", Label: "Min Allocation", Scored: true},
		{Name: "tokens_for_sale", Label: "Tokens For Sale", Scored: true},
		{Name: "total_supply", Label: "Total Supply", Scored: true},
		{Name: "initial_circulating_supply", Label: "Initial Circulating Supply", Scored: true},
		{Name: "fully_diluted_valuation", Label: "Fully Diluted Valuation", Scored: true},
		{Name: "token_ticker", Label: "Token Ticker", Scored: true},
		{Name: "network", Label: "Network", Scored: true},
		{Name: "tier", Label: "Launchpad Tier", Scored: true},
		{Name: "grace_period", Label: "Grace Period", Scored: true},
		{Name: "contract_address", Label: "Contract Address", Scored: true},
		{Name: "vesting_schedule", Label: "Vesting Schedule", Scored: true},
		{Name: "liquidity_percent", Label: "Liquidity Percent", Scored: true},
		{Name: "transaction_id", Label: "Transaction ID", Scored: false},
	}

	PlatformContentFields = []FieldDef{
		{Name: "project_description", Label: "Project Description", Scored: true},
		{Name: "value_proposition", Label: "Value Proposition", Scored: true},
		{Name: "roadmap", Label: "Roadmap", Scored: true},
		{Name: "team_overview", Label: "Team Overview", Scored: true},
		{Name: "website_url", Label: "Website URL", Scored: true},
		{Name: "whitepaper_url", Label: "Whitepaper URL", Scored: true},
		{Name: "twitter_url", Label: "Twitter URL", Scored: true},
		{Name: "telegram_url", Label: "Telegram URL", Scored: true},
		{Name: "discord_url", Label: "Discord URL", Scored: true},
		{Name: "medium_url", Label: "Medium URL", Scored: true},
		{Name: "github_url", Label: "GitHub URL", Scored: true},
		{Name: "demo_video_url", Label: "Demo Video URL", Scored: true},
	}

	MarketingAssetFields = []FieldDef{
		{Name: "logo", Label: "Logo", Scored: true},
		{Name: "hero_banner", Label: "Hero Banner", Scored: true},
		{Name: "drive_folder", Label: "Drive Folder", Scored: true},
	}
)

// SectionFields returns the field registry of a field-status section, in
// declaration order. Count-driven sections (faqs, quiz questions) have no
// fixed field identity and return nil.
func SectionFields(section Section) []FieldDef {
	switch section {
	case SectionIDOMetrics:
		return IDOMetricFields
	case SectionPlatformContent:
		return PlatformContentFields
	case SectionMarketingAssets:
		return MarketingAssetFields
	}
	return nil
}

// FieldLabel resolves the human-readable label of a field within a section.
func FieldLabel(section Section, name FieldName) (string, bool) {
	for _, def := range SectionFields(section) {
		if def.Name == name {
			return def.Label, true
		}
	}
	return "", false
}

func knownField(section Section, name FieldName) bool {
	_, ok := FieldLabel(section, name)
	return ok
}

// Field is a value with its confirmation status.
type Field struct {
	Value  string `json:"value"`
	Status Status `json:"status"`
}

type (
	IDOMetrics      map[FieldName]Field
	PlatformContent map[FieldName]Field
	MarketingAssets map[FieldName]Field
)

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Status   Status `json:"status"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Status        Status   `json:"status"`
}

type Project struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Snapshot is a fully-materialized, read-only view of one project's record
// across all sections at a point in time. Repositories produce it in a single
// consistent read; absent sub-records are nil.
type Snapshot struct {
	Project         Project         `json:"project"`
	IDOMetrics      IDOMetrics      `json:"ido_metrics,omitempty"`
	PlatformContent PlatformContent `json:"platform_content,omitempty"`
	MarketingAssets MarketingAssets `json:"marketing_assets,omitempty"`
	FAQs            []FAQ           `json:"faqs"`
	QuizQuestions   []QuizQuestion  `json:"quiz_questions"`
	UpdatedAt       time.Time       `json:"updated_at"` // last write across all sections, UTC
}

// FieldMap returns the field map of a field-status section; nil when the
// sub-record is absent or the section is count-driven.
func (s Snapshot) FieldMap(section Section) map[FieldName]Field {
	switch section {
	case SectionIDOMetrics:
		return s.IDOMetrics
	case SectionPlatformContent:
		return s.PlatformContent
	case SectionMarketingAssets:
		return s.MarketingAssets
	}
	return nil
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Name    string `json:"name" validate:"required"`
	Slug    string `json:"slug" validate:"required,slug"`
	OwnerID string `json:"owner_id" validate:"required"`
}

func (np *NewProject) Validate(validate *validator.Validate, svc ServiceInterface) error {
	np.Name = core.CleanString(np.Name)
	np.Slug = core.CleanString(np.Slug, true /* lower */)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(np.Slug)
}

// UpdateProject defines what information may be provided to modify an existing Project.
type UpdateProject struct {
	Name    string `json:"name"`
	Slug    string `json:"slug" validate:"omitempty,slug"`
	OwnerID string `json:"owner_id"`
}

func (up *UpdateProject) Validate(validate *validator.Validate, origPrj Project, svc ServiceInterface) error {
	name := core.CleanString(up.Name)
	if name != "" {
		up.Name = name
	} else {
		up.Name = origPrj.Name
	}

	slug := core.CleanString(up.Slug, true /* lower */)
	if slug != "" {
		up.Slug = slug
	} else {
		up.Slug = origPrj.Slug
	}

	if up.OwnerID == "" {
		up.OwnerID = origPrj.OwnerID
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(up.Slug, origPrj)
}

// FieldInput is one field of a section save payload.
type FieldInput struct {
	Value  string `json:"value"`
	Status Status `json:"status" validate:"required,fieldstatus"`
}

// SaveFields is the payload for upserting a field-status section.
type SaveFields struct {
	Fields map[FieldName]FieldInput `json:"fields" validate:"required,min=1,dive"`
}

func (sf *SaveFields) Validate(validate *validator.Validate, section Section) error {
	if err := validate.Struct(sf); err != nil {
		return err
	}
	var fldErrs []core.FieldError
	for name := range sf.Fields {
		if !knownField(section, name) {
			fldErrs = append(fldErrs, core.FieldError{Field: string(name), Error: "unknown field"})
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// fieldMap converts the payload into the persisted field map.
func (sf SaveFields) fieldMap() map[FieldName]Field {
	fields := make(map[FieldName]Field, len(sf.Fields))
	for name, in := range sf.Fields {
		fields[name] = Field{Value: core.CleanString(in.Value), Status: in.Status}
	}
	return fields
}

type FAQInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Status   Status `json:"status" validate:"required,fieldstatus"`
}

// SaveFAQs replaces a project's FAQ list.
type SaveFAQs struct {
	FAQs []FAQInput `json:"faqs" validate:"dive"`
}

func (sf *SaveFAQs) Validate(validate *validator.Validate) error {
	for i := range sf.FAQs {
		sf.FAQs[i].Question = core.CleanString(sf.FAQs[i].Question)
		sf.FAQs[i].Answer = core.CleanString(sf.FAQs[i].Answer)
	}
	return validate.Struct(sf)
}

type QuizQuestionInput struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=3,max=4,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
	Status        Status   `json:"status" validate:"required,fieldstatus"`
}

// SaveQuizQuestions replaces a project's quiz question list.
type SaveQuizQuestions struct {
	Questions []QuizQuestionInput `json:"questions" validate:"dive"`
}

func (sq *SaveQuizQuestions) Validate(validate *validator.Validate) error {
	for i := range sq.Questions {
		sq.Questions[i].Question = core.CleanString(sq.Questions[i].Question)
	}
	return validate.Struct(sq)
}
