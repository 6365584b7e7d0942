package inmemdb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/padhq/launchpad/core/project"
)

type projectRepository struct {
	db *projectTable
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) *projectRepository {
	return &projectRepository{db: db.project}
}

func (repo *projectRepository) query() []project.Project {
	recs := make([]*projectRecord, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].project.CreatedAt.Equal(recs[j].project.CreatedAt) {
			return recs[i].project.CreatedAt.After(recs[j].project.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	projects := make([]project.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, rec.project)
	}
	return projects
}

func (repo *projectRepository) CheckSlugUniqueness(slug string, excludedProjects ...project.Project) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedProjects))
	for _, prj := range excludedProjects {
		excluded[prj.ID] = struct{}{}
	}

	for _, prj := range repo.query() {
		if _, ok := excluded[prj.ID]; ok {
			continue
		}
		if prj.Slug == slug {
			return project.ErrSlugExists
		}
	}
	return nil
}

func (repo *projectRepository) CreateProject(prj project.Project) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if prj.ID == "" {
		prj.ID = uuid.New().String()
	}
	repo.db.seq++
	repo.db.table[prj.ID] = &projectRecord{
		project:         prj,
		seq:             repo.db.seq,
		fields:          make(map[project.Section]map[project.FieldName]project.Field),
		fieldsUpdatedAt: make(map[project.Section]time.Time),
	}
	return prj, nil
}

func (repo *projectRepository) QueryAllProjects() ([]project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *projectRepository) GetProjectByID(id string) (project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return rec.project, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) GetProjectBySlug(slug string) (project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, prj := range repo.query() {
		if prj.Slug == slug {
			return prj, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) FilterProjectsByOwner(ownerID string) ([]project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var projects []project.Project
	for _, prj := range repo.query() {
		if prj.OwnerID == ownerID {
			projects = append(projects, prj)
		}
	}
	return projects, nil
}

func (repo *projectRepository) UpdateProject(prj project.Project) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.table[prj.ID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	rec.project.OwnerID = prj.OwnerID
	rec.project.Name = prj.Name
	rec.project.Slug = prj.Slug
	rec.project.UpdatedAt = prj.UpdatedAt
	return rec.project, nil
}

func (repo *projectRepository) DeleteProjectsByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *projectRepository) GetSnapshot(projectID string) (project.Snapshot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rec, ok := repo.db.table[projectID]
	if !ok {
		return project.Snapshot{}, project.ErrNotFound
	}

	snap := project.Snapshot{
		Project:   rec.project,
		UpdatedAt: rec.project.UpdatedAt,
	}

	copyFields := func(section project.Section) map[project.FieldName]project.Field {
		stored, ok := rec.fields[section]
		if !ok {
			return nil
		}
		fields := make(map[project.FieldName]project.Field, len(stored))
		for name, fld := range stored {
			fields[name] = fld
		}
		if at := rec.fieldsUpdatedAt[section]; at.After(snap.UpdatedAt) {
			snap.UpdatedAt = at
		}
		return fields
	}
	snap.IDOMetrics = copyFields(project.SectionIDOMetrics)
	snap.PlatformContent = copyFields(project.SectionPlatformContent)
	snap.MarketingAssets = copyFields(project.SectionMarketingAssets)

	if rec.faqs != nil {
		snap.FAQs = append([]project.FAQ(nil), rec.faqs...)
		if rec.faqsUpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = rec.faqsUpdatedAt
		}
	}
	if rec.quiz != nil {
		snap.QuizQuestions = append([]project.QuizQuestion(nil), rec.quiz...)
		if rec.quizUpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = rec.quizUpdatedAt
		}
	}
	return snap, nil
}

func (repo *projectRepository) saveFields(projectID string, section project.Section, fields map[project.FieldName]project.Field, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.table[projectID]
	if !ok {
		return project.ErrNotFound
	}
	stored, ok := rec.fields[section]
	if !ok {
		stored = make(map[project.FieldName]project.Field, len(fields))
		rec.fields[section] = stored
	}
	for name, fld := range fields {
		stored[name] = fld
	}
	rec.fieldsUpdatedAt[section] = updatedAt
	return nil
}

func (repo *projectRepository) SaveIDOMetrics(projectID string, fields map[project.FieldName]project.Field, updatedAt time.Time) error {
	return repo.saveFields(projectID, project.SectionIDOMetrics, fields, updatedAt)
}

func (repo *projectRepository) SavePlatformContent(projectID string, fields map[project.FieldName]project.Field, updatedAt time.Time) error {
	return repo.saveFields(projectID, project.SectionPlatformContent, fields, updatedAt)
}

func (repo *projectRepository) SaveMarketingAssets(projectID string, fields map[project.FieldName]project.Field, updatedAt time.Time) error {
	return repo.saveFields(projectID, project.SectionMarketingAssets, fields, updatedAt)
}

func (repo *projectRepository) ReplaceFAQs(projectID string, faqs []project.FAQ, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.table[projectID]
	if !ok {
		return project.ErrNotFound
	}
	rec.faqs = append([]project.FAQ(nil), faqs...)
	rec.faqsUpdatedAt = updatedAt
	return nil
}

func (repo *projectRepository) ReplaceQuizQuestions(projectID string, questions []project.QuizQuestion, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.table[projectID]
	if !ok {
		return project.ErrNotFound
	}
	rec.quiz = append([]project.QuizQuestion(nil), questions...)
	rec.quizUpdatedAt = updatedAt
	return nil
}
