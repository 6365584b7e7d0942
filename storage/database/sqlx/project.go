package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/padhq/launchpad/core/project"
)

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) *projectRepository {
	return &projectRepository{db: db}
}

type projectRow struct {
	ID        string      `db:"id"`
	OwnerID   null.String `db:"owner_id"`
	Name      string      `db:"name"`
	Slug      string      `db:"slug"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

type fieldRow struct {
	ProjectID string    `db:"project_id"`
	Section   string    `db:"section"`
	Field     string    `db:"field"`
	Value     null.String `db:"value"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type faqRow struct {
	ProjectID string    `db:"project_id"`
	Position  int       `db:"position"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type quizQuestionRow struct {
	ProjectID     string         `db:"project_id"`
	Position      int            `db:"position"`
	Question      string         `db:"question"`
	Options       pq.StringArray `db:"options"`
	CorrectOption int            `db:"correct_option"`
	Status        string         `db:"status"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (repo projectRepository) toRow(prj project.Project) projectRow {
	return projectRow{
		ID:        prj.ID,
		OwnerID:   null.NewString(prj.OwnerID, prj.OwnerID != ""),
		Name:      prj.Name,
		Slug:      prj.Slug,
		CreatedAt: null.NewTime(prj.CreatedAt.UTC(), !prj.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(prj.UpdatedAt.UTC(), !prj.UpdatedAt.IsZero()),
	}
}

func (repo projectRepository) fromRow(row projectRow) project.Project {
	return project.Project{
		ID:        row.ID,
		OwnerID:   row.OwnerID.String,
		Name:      row.Name,
		Slug:      row.Slug,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo projectRepository) fromRows(rows []projectRow) []project.Project {
	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, repo.fromRow(row))
	}
	return projects
}

func (repo *projectRepository) CheckSlugUniqueness(slug string, excludedProjects ...project.Project) error {
	query := `SELECT COUNT(*) FROM projects WHERE slug = $1`
	args := []interface{}{slug}
	if len(excludedProjects) > 0 {
		ids := make([]string, 0, len(excludedProjects))
		for _, prj := range excludedProjects {
			ids = append(ids, prj.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if count > 0 {
		return project.ErrSlugExists
	}
	return nil
}

func (repo *projectRepository) CreateProject(prj project.Project) (project.Project, error) {
	if prj.ID == "" {
		prj.ID = uuid.New().String()
	}
	row := repo.toRow(prj)

	_, err := repo.db.NamedExec(`
		INSERT INTO projects (id, owner_id, name, slug, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :slug, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "creating project")
	}
	return repo.GetProjectByID(prj.ID)
}

func (repo *projectRepository) QueryAllProjects() ([]project.Project, error) {
	var rows []projectRow
	if err := repo.db.Select(&rows, `SELECT * FROM projects ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	return repo.fromRows(rows), nil
}

func (repo *projectRepository) getProject(query string, args ...interface{}) (project.Project, error) {
	var row projectRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "getting project")
	}
	return repo.fromRow(row), nil
}

func (repo *projectRepository) GetProjectByID(id string) (project.Project, error) {
	return repo.getProject(`SELECT * FROM projects WHERE id = $1`, id)
}

func (repo *projectRepository) GetProjectBySlug(slug string) (project.Project, error) {
	return repo.getProject(`SELECT * FROM projects WHERE slug = $1`, slug)
}

func (repo *projectRepository) FilterProjectsByOwner(ownerID string) ([]project.Project, error) {
	var rows []projectRow
	err := repo.db.Select(&rows, `SELECT * FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering projects")
	}
	return repo.fromRows(rows), nil
}

func (repo *projectRepository) UpdateProject(prj project.Project) (project.Project, error) {
	var row projectRow
	err := repo.db.Get(&row, `
		UPDATE projects SET owner_id = $1, name = $2, slug = $3, updated_at = $4
		WHERE id = $5 RETURNING *`,
		null.NewString(prj.OwnerID, prj.OwnerID != ""), prj.Name, prj.Slug, prj.UpdatedAt.UTC(), prj.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	return repo.fromRow(row), nil
}

func (repo *projectRepository) DeleteProjectsByID(ids ...string) error {
	if _, err := repo.db.Exec(`DELETE FROM projects WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	return nil
}

// GetSnapshot loads the project and every sub-record in one transaction so the
// caller sees a consistent point-in-time view.
func (repo *projectRepository) GetSnapshot(projectID string) (project.Snapshot, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return project.Snapshot{}, errors.Wrap(err, "beginning snapshot read")
	}
	defer func() { _ = tx.Rollback() }()

	var prjRow projectRow
	if err = tx.Get(&prjRow, `SELECT * FROM projects WHERE id = $1`, projectID); err != nil {
		if err == sql.ErrNoRows {
			return project.Snapshot{}, project.ErrNotFound
		}
		return project.Snapshot{}, errors.Wrap(err, "getting project")
	}

	snap := project.Snapshot{
		Project:   repo.fromRow(prjRow),
		UpdatedAt: prjRow.UpdatedAt.Time,
	}

	var fldRows []fieldRow
	if err = tx.Select(&fldRows, `SELECT * FROM project_fields WHERE project_id = $1`, projectID); err != nil {
		return project.Snapshot{}, errors.Wrap(err, "getting project fields")
	}
	for _, row := range fldRows {
		fld := project.Field{Value: row.Value.String, Status: project.Status(row.Status)}
		switch project.Section(row.Section) {
		case project.SectionIDOMetrics:
			if snap.IDOMetrics == nil {
				snap.IDOMetrics = make(project.IDOMetrics)
			}
			snap.IDOMetrics[project.FieldName(row.Field)] = fld
		case project.SectionPlatformContent:
			if snap.PlatformContent == nil {
				snap.PlatformContent = make(project.PlatformContent)
			}
			snap.PlatformContent[project.FieldName(row.Field)] = fld
		case project.SectionMarketingAssets:
			if snap.MarketingAssets == nil {
				snap.MarketingAssets = make(project.MarketingAssets)
			}
			snap.MarketingAssets[project.FieldName(row.Field)] = fld
		}
		if row.UpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = row.UpdatedAt
		}
	}

	var faqRows []faqRow
	if err = tx.Select(&faqRows, `SELECT * FROM project_faqs WHERE project_id = $1 ORDER BY position`, projectID); err != nil {
		return project.Snapshot{}, errors.Wrap(err, "getting project FAQs")
	}
	for _, row := range faqRows {
		snap.FAQs = append(snap.FAQs, project.FAQ{
			Question: row.Question,
			Answer:   row.Answer,
			Status:   project.Status(row.Status),
		})
		if row.UpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = row.UpdatedAt
		}
	}

	var qRows []quizQuestionRow
	if err = tx.Select(&qRows, `SELECT * FROM project_quiz_questions WHERE project_id = $1 ORDER BY position`, projectID); err != nil {
		return project.Snapshot{}, errors.Wrap(err, "getting project quiz questions")
	}
	for _, row := range qRows {
		snap.QuizQuestions = append(snap.QuizQuestions, project.QuizQuestion{
			Question:      row.Question,
			Options:       row.Options,
			CorrectOption: row.CorrectOption,
			Status:        project.Status(row.Status),
		})
		if row.UpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = row.UpdatedAt
		}
	}

	if err = tx.Commit(); err != nil {
		return project.Snapshot{}, errors.Wrap(err, "committing snapshot read")
	}
	return snap, nil
}

// saveFields upserts one section's fields. Fields absent from the payload keep
// their stored value; the registry is fixed so rows are never orphaned.
func (repo *projectRepository) saveFields(projectID string, section project.Section, fields map[project.FieldName]project.Field, updatedAt time.Time) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning section save")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err = tx.Get(&exists, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID); err != nil {
		return errors.Wrap(err, "checking project")
	}
	if !exists {
		return project.ErrNotFound
	}

	// deterministic write order keeps concurrent section saves deadlock-free
	for _, def := range project.SectionFields(section) {
		fld, ok := fields[def.Name]
		if !ok {
			continue
		}
		_, err = tx.Exec(`
			INSERT INTO project_fields (project_id, section, field, value, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (project_id, section, field)
			DO UPDATE SET value = EXCLUDED.value, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
			projectID, string(section), string(def.Name),
			null.NewString(fld.Value, fld.Value != ""), string(fld.Status), updatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrapf(err, "saving field %s", def.Name)
		}
	}

	return errors.Wrap(tx.Commit(), "committing section save")
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
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning FAQ replace")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err = tx.Get(&exists, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID); err != nil {
		return errors.Wrap(err, "checking project")
	}
	if !exists {
		return project.ErrNotFound
	}

	if _, err = tx.Exec(`DELETE FROM project_faqs WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "clearing FAQs")
	}
	for i, faq := range faqs {
		_, err = tx.Exec(`
			INSERT INTO project_faqs (project_id, position, question, answer, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			projectID, i+1, faq.Question, faq.Answer, string(faq.Status), updatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrap(err, "saving FAQ")
		}
	}

	return errors.Wrap(tx.Commit(), "committing FAQ replace")
}

func (repo *projectRepository) ReplaceQuizQuestions(projectID string, questions []project.QuizQuestion, updatedAt time.Time) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning quiz replace")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err = tx.Get(&exists, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID); err != nil {
		return errors.Wrap(err, "checking project")
	}
	if !exists {
		return project.ErrNotFound
	}

	if _, err = tx.Exec(`DELETE FROM project_quiz_questions WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "clearing quiz questions")
	}
	for i, q := range questions {
		_, err = tx.Exec(`
			INSERT INTO project_quiz_questions (project_id, position, question, options, correct_option, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			projectID, i+1, q.Question, pq.StringArray(q.Options), q.CorrectOption, string(q.Status), updatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrap(err, "saving quiz question")
		}
	}

	return errors.Wrap(tx.Commit(), "committing quiz replace")
}
