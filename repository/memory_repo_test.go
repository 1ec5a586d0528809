package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upsolve/model"
)

func TestMemoryRepositoryUserQuestions(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertQuestion(ctx, model.Question{ID: "1_A", Name: "A", ProblemStatement: "{}"}))
	require.NoError(t, repo.UpsertQuestion(ctx, model.Question{ID: "1_A", Name: "renamed"}))
	require.NoError(t, repo.UpsertQuestion(ctx, model.Question{ID: "2_B", Name: "B"}))

	created, err := repo.UpsertUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "1_A", CreatedAt: t0})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.UpsertUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "2_B", CreatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, created)

	on, err := repo.ToggleBookmark(ctx, "u1", "1_A")
	require.NoError(t, err)
	assert.True(t, on)

	created, err = repo.UpsertUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "1_A"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.ErrorIs(t, repo.CreateUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "1_A"}), ErrConflict)

	list, err := repo.ListUserQuestions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2_B", list[0].QuestionID)
	assert.Equal(t, "1_A", list[1].QuestionID)
	assert.True(t, list[1].Bookmarked)
	require.NotNil(t, list[1].Question)
	assert.Equal(t, "A", list[1].Question.Name)
	assert.Empty(t, list[1].Question.ProblemStatement)

	q, err := repo.GetQuestion(ctx, "1_A")
	require.NoError(t, err)
	assert.Equal(t, "{}", q.ProblemStatement)

	removed, err := repo.DeleteUserQuestion(ctx, "u1", "1_A")
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = repo.GetUserQuestion(ctx, "u1", "1_A")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ToggleBookmark(ctx, "u1", "1_A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryUsersAndStatements(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	assert.ErrorIs(t, repo.SaveStatement(ctx, "1_A", "{}"), ErrNotFound)
	require.NoError(t, repo.UpsertUser(ctx, model.User{ID: "u2", Handle: "petr"}))
	require.NoError(t, repo.UpsertUser(ctx, model.User{ID: "u1", Handle: "tourist"}))
	require.NoError(t, repo.UpsertUser(ctx, model.User{ID: "u3"}))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)

	_, err = repo.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
