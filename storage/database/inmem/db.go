// Package inmemdb provides map-backed repositories for tests and local
// development. They honor the same contracts as the SQL repositories.
package inmemdb

import (
	"sync"
	"time"

	"github.com/padhq/launchpad/core/project"
	"github.com/padhq/launchpad/core/user"
)

type userTable struct {
	mutex sync.RWMutex
	table map[string]*userRecord
	seq   int
}

type userRecord struct {
	user user.User
	seq  int // insertion order, breaks created_at ties
}

type projectTable struct {
	mutex sync.RWMutex
	table map[string]*projectRecord
	seq   int
}

type projectRecord struct {
	project project.Project
	seq     int

	fields          map[project.Section]map[project.FieldName]project.Field
	fieldsUpdatedAt map[project.Section]time.Time
	faqs            []project.FAQ
	faqsUpdatedAt   time.Time
	quiz            []project.QuizQuestion
	quizUpdatedAt   time.Time
}

type DB struct {
	user    *userTable
	project *projectTable
}

func NewDB() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*userRecord)},
		project: &projectTable{table: make(map[string]*projectRecord)},
	}
}
