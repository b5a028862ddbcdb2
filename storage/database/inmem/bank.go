package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/bank"
)

type bankRepository struct {
	db         *bankTable
	curriculum *curriculumTables
}

var _ bank.Repository = (*bankRepository)(nil)

func NewBankRepository(db *DB) bank.Repository {
	return &bankRepository{db: db.bank, curriculum: db.curriculum}
}

func copyBankQuestion(q bank.Question) bank.Question {
	q.Options = append([]bank.Option(nil), q.Options...)
	return q
}

func (repo *bankRepository) CreateQuestion(_ context.Context, q bank.Question) (bank.Question, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.Lock()
	defer repo.db.Unlock()

	subject, ok := repo.curriculum.subjects[q.SubjectID]
	if !ok {
		return bank.Question{}, bank.ErrSubjectNotFound
	}
	q.SubjectName = subject.Name
	if q.UnitID != nil {
		unit, ok := repo.curriculum.units[*q.UnitID]
		if !ok {
			return bank.Question{}, bank.ErrSubjectNotFound
		}
		name := unit.Name
		q.UnitName = &name
	}

	q = copyBankQuestion(q)
	q.ID = uuid.NewString()
	for i := range q.Options {
		q.Options[i].ID = uuid.NewString()
		q.Options[i].QuestionID = q.ID
	}
	repo.db.table[q.ID] = &q
	return copyBankQuestion(q), nil
}

func (repo *bankRepository) GetQuestion(_ context.Context, id string) (bank.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	q, ok := repo.db.table[id]
	if !ok || q.IsDeleted {
		return bank.Question{}, bank.ErrNotFound
	}
	return copyBankQuestion(*q), nil
}

func (repo *bankRepository) GetQuestions(_ context.Context, ids []string) ([]bank.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]bank.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := repo.db.table[id]; ok && !q.IsDeleted {
			questions = append(questions, copyBankQuestion(*q))
		}
	}
	return questions, nil
}

func (repo *bankRepository) QueryQuestions(_ context.Context, filter bank.QueryFilter, page core.Page) ([]bank.Question, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]bank.Question, 0)
	for _, q := range repo.db.table {
		switch {
		case q.IsDeleted,
			filter.SubjectID != "" && q.SubjectID != filter.SubjectID,
			filter.UnitID != "" && core.StringValue(q.UnitID) != filter.UnitID,
			filter.Difficulty != "" && q.Difficulty != filter.Difficulty,
			search != "" && !strings.Contains(strings.ToLower(q.Text), search):
			continue
		}
		matches = append(matches, copyBankQuestion(*q))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginate(matches, page), len(matches), nil
}

func (repo *bankRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if q, ok := repo.db.table[id]; ok {
		q.IsDeleted = true
	}
	return nil
}
