package project

import (
	"time"

	"github.com/pkg/errors"

	"github.com/padhq/launchpad/core"
)

var (
	// errors
	ErrNotFound   = errors.New("project not found")
	ErrSlugExists = errors.New("a project with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(slug string, excludedProjects ...Project) error
		CreateProject(prj Project) (Project, error)
		QueryAllProjects() ([]Project, error)
		GetProjectByID(id string) (Project, error)
		GetProjectBySlug(slug string) (Project, error)
		FilterProjectsByOwner(ownerID string) ([]Project, error)
		UpdateProject(prj Project) (Project, error)
		DeleteProjectsByID(ids ...string) error

		// GetSnapshot returns all five sub-records in one consistent read.
		GetSnapshot(projectID string) (Snapshot, error)
		SaveIDOMetrics(projectID string, fields map[FieldName]Field, updatedAt time.Time) error
		SavePlatformContent(projectID string, fields map[FieldName]Field, updatedAt time.Time) error
		SaveMarketingAssets(projectID string, fields map[FieldName]Field, updatedAt time.Time) error
		ReplaceFAQs(projectID string, faqs []FAQ, updatedAt time.Time) error
		ReplaceQuizQuestions(projectID string, questions []QuizQuestion, updatedAt time.Time) error
	}

	// ChangeListener is notified after every persisted write so progress
	// consumers can recompute. Implementations must not block.
	ChangeListener interface {
		SectionSaved(projectID string, section Section)
		FieldConfirmed(projectID string, section Section, field FieldName)
		ManualRefresh(projectID string)
	}

	ServiceInterface interface {
		CheckSlugUniqueness(slug string, exclProjects ...Project) error
		Create(np NewProject) (Project, error)
		QueryAll() ([]Project, error)
		GetByID(id string) (Project, error)
		GetBySlug(slug string) (Project, error)
		FilterByOwner(ownerID string) ([]Project, error)
		Update(id string, up UpdateProject) (Project, error)
		Delete(ids ...string) error

		GetSnapshot(projectID string) (Snapshot, error)
		SaveSection(projectID string, section Section, sf SaveFields) (Snapshot, error)
		SaveFAQs(projectID string, sf SaveFAQs) (Snapshot, error)
		SaveQuizQuestions(projectID string, sq SaveQuizQuestions) (Snapshot, error)
	}

	Service struct {
		repo     Repository
		listener ChangeListener
		conf     *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, listener ChangeListener, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		listener: listener,
		conf:     conf,
	}
}

func (svc *Service) CheckSlugUniqueness(slug string, exclProjects ...Project) error {
	if err := svc.repo.CheckSlugUniqueness(slug, exclProjects...); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(np NewProject) (Project, error) {
	now := time.Now().UTC()
	prj := Project{
		OwnerID:   np.OwnerID,
		Name:      np.Name,
		Slug:      np.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateProject(prj)
}

func (svc *Service) QueryAll() ([]Project, error) {
	return svc.repo.QueryAllProjects()
}

func (svc *Service) GetByID(id string) (Project, error) {
	return svc.repo.GetProjectByID(id)
}

func (svc *Service) GetBySlug(slug string) (Project, error) {
	return svc.repo.GetProjectBySlug(core.CleanString(slug, true /* lower */))
}

func (svc *Service) FilterByOwner(ownerID string) ([]Project, error) {
	return svc.repo.FilterProjectsByOwner(ownerID)
}

func (svc *Service) Update(id string, up UpdateProject) (Project, error) {
	prj := Project{
		ID:        id,
		OwnerID:   up.OwnerID,
		Name:      up.Name,
		Slug:      up.Slug,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateProject(prj)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteProjectsByID(ids...)
}

func (svc *Service) GetSnapshot(projectID string) (Snapshot, error) {
	return svc.repo.GetSnapshot(projectID)
}

// SaveSection upserts one field-status section, then notifies the change
// listener: one event per field that transitioned to confirmed, then a
// section-saved event. Events fire only after the write is persisted, so any
// recompute triggered by them reads its own write.
func (svc *Service) SaveSection(projectID string, section Section, sf SaveFields) (Snapshot, error) {
	old, err := svc.repo.GetSnapshot(projectID)
	if err != nil {
		return Snapshot{}, err
	}

	fields := sf.fieldMap()
	now := time.Now().UTC()

	switch section {
	case SectionIDOMetrics:
		err = svc.repo.SaveIDOMetrics(projectID, fields, now)
	case SectionPlatformContent:
		err = svc.repo.SavePlatformContent(projectID, fields, now)
	case SectionMarketingAssets:
		err = svc.repo.SaveMarketingAssets(projectID, fields, now)
	default:
		return Snapshot{}, errors.Errorf("section %q does not hold status fields", section)
	}
	if err != nil {
		return Snapshot{}, err
	}

	if svc.listener != nil {
		oldFields := old.FieldMap(section)
		for _, def := range SectionFields(section) {
			fld, ok := fields[def.Name]
			if !ok || fld.Status != StatusConfirmed {
				continue
			}
			if prev, ok := oldFields[def.Name]; !ok || prev.Status != StatusConfirmed {
				svc.listener.FieldConfirmed(projectID, section, def.Name)
			}
		}
		svc.listener.SectionSaved(projectID, section)
	}

	return svc.repo.GetSnapshot(projectID)
}

func (svc *Service) SaveFAQs(projectID string, sf SaveFAQs) (Snapshot, error) {
	faqs := make([]FAQ, 0, len(sf.FAQs))
	for _, in := range sf.FAQs {
		faqs = append(faqs, FAQ{Question: in.Question, Answer: in.Answer, Status: in.Status})
	}
	if err := svc.repo.ReplaceFAQs(projectID, faqs, time.Now().UTC()); err != nil {
		return Snapshot{}, err
	}
	if svc.listener != nil {
		svc.listener.SectionSaved(projectID, SectionFAQs)
	}
	return svc.repo.GetSnapshot(projectID)
}

func (svc *Service) SaveQuizQuestions(projectID string, sq SaveQuizQuestions) (Snapshot, error) {
	questions := make([]QuizQuestion, 0, len(sq.Questions))
	for _, in := range sq.Questions {
		questions = append(questions, QuizQuestion{
			Question:      in.Question,
			Options:       in.Options,
			CorrectOption: in.CorrectOption,
			Status:        in.Status,
		})
	}
	if err := svc.repo.ReplaceQuizQuestions(projectID, questions, time.Now().UTC()); err != nil {
		return Snapshot{}, err
	}
	if svc.listener != nil {
		svc.listener.SectionSaved(projectID, SectionQuizQuestions)
	}
	return svc.repo.GetSnapshot(projectID)
}
