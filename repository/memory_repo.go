package repository

import (
	"context"
	"sort"
	"sync"

	"upsolve/model"
)

// MemoryRepository keeps everything in process. It backs the service when
// no MongoDB URL is configured and behaves like Repository: creates never
// overwrite, and reads of user questions carry the bank entry without its
// statement.
type MemoryRepository struct {
	mu            sync.RWMutex
	users         map[string]model.User
	questions     map[string]model.Question
	userQuestions map[string]model.UserQuestion
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]model.User),
		questions:     make(map[string]model.Question),
		userQuestions: make(map[string]model.UserQuestion),
	}
}

func memKey(userID, questionID string) string { return userID + "\x00" + questionID }

func (r *MemoryRepository) UpsertUser(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.users[u.ID]; ok {
		u.CreatedAt = old.CreatedAt
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.User{}
	for _, u := range r.users {
		if u.Handle != "" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) UpsertQuestion(ctx context.Context, q model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		r.questions[q.ID] = q
	}
	return nil
}

func (r *MemoryRepository) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (r *MemoryRepository) SaveStatement(ctx context.Context, id, statement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return ErrNotFound
	}
	q.ProblemStatement = statement
	r.questions[id] = q
	return nil
}

func (r *MemoryRepository) UpsertUserQuestion(ctx context.Context, uq model.UserQuestion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey(uq.UserID, uq.QuestionID)
	if _, ok := r.userQuestions[k]; ok {
		return false, nil
	}
	uq.Question = nil
	r.userQuestions[k] = uq
	return true, nil
}

func (r *MemoryRepository) CreateUserQuestion(ctx context.Context, uq model.UserQuestion) error {
	created, err := r.UpsertUserQuestion(ctx, uq)
	if err != nil {
		return err
	}
	if !created {
		return ErrConflict
	}
	return nil
}

func (r *MemoryRepository) GetUserQuestion(ctx context.Context, userID, questionID string) (*model.UserQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uq, ok := r.userQuestions[memKey(userID, questionID)]
	if !ok {
		return nil, ErrNotFound
	}
	out, ok := r.joined(uq)
	if !ok {
		return nil, ErrNotFound
	}
	return &out, nil
}

func (r *MemoryRepository) ListUserQuestions(ctx context.Context, userID string) ([]model.UserQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.UserQuestion{}
	for _, uq := range r.userQuestions {
		if uq.UserID != userID {
			continue
		}
		if joined, ok := r.joined(uq); ok {
			out = append(out, joined)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}

// joined attaches the bank entry the way the aggregation's $lookup and
// $unwind do: records without one are dropped.
func (r *MemoryRepository) joined(uq model.UserQuestion) (model.UserQuestion, bool) {
	q, ok := r.questions[uq.QuestionID]
	if !ok {
		return uq, false
	}
	q.ProblemStatement = ""
	uq.Question = &q
	return uq, true
}

func (r *MemoryRepository) ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey(userID, questionID)
	uq, ok := r.userQuestions[k]
	if !ok {
		return false, ErrNotFound
	}
	uq.Bookmarked = !uq.Bookmarked
	r.userQuestions[k] = uq
	return uq.Bookmarked, nil
}

func (r *MemoryRepository) DeleteUserQuestion(ctx context.Context, userID, questionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey(userID, questionID)
	_, ok := r.userQuestions[k]
	delete(r.userQuestions, k)
	return ok, nil
}
