package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upsolve/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Repository struct {
	mongoclientInstance *mongo.Client
	users               *mongo.Collection
	questions           *mongo.Collection
	userQuestions       *mongo.Collection
}

func NewRepository(client *mongo.Client, dbName string) *Repository {
	db := client.Database(dbName)
	return &Repository{
		mongoclientInstance: client,
		users:               db.Collection("users"),
		questions:           db.Collection("question_bank"),
		userQuestions:       db.Collection("user_questions"),
	}
}

// EnsureIndexes creates the (userId, questionId) uniqueness the upserts rely on.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.userQuestions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "questionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_question_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user_questions indexes: %w", err)
	}
	return nil
}

// UpsertUser records or updates a user's handle.
func (r *Repository) UpsertUser(ctx context.Context, u model.User) error {
	now := u.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{
			"$set":         bson.M{"handle": u.Handle},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user that has a handle set.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{"handle": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertQuestion adds q to the question bank if absent. An existing entry is
// never overwritten.
func (r *Repository) UpsertQuestion(ctx context.Context, q model.Question) error {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.questions.UpdateOne(ctx,
		bson.M{"_id": q.ID},
		bson.M{"$setOnInsert": bson.M{
			"platform":  q.Platform,
			"name":      q.Name,
			"link":      q.Link,
			"rating":    q.Rating,
			"tags":      tags,
			"createdAt": q.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// SaveStatement stores the serialized statement on an existing question.
func (r *Repository) SaveStatement(ctx context.Context, id, statement string) error {
	res, err := r.questions.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"problemStatement": statement}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertUserQuestion inserts uq unless the user already tracks the question,
// in which case the stored record is left untouched. It reports whether a
// record was created.
func (r *Repository) UpsertUserQuestion(ctx context.Context, uq model.UserQuestion) (bool, error) {
	doc := userQuestionDoc(uq)
	// The filter fields are copied into the inserted document already.
	delete(doc, "userId")
	delete(doc, "questionId")
	res, err := r.userQuestions.UpdateOne(ctx,
		bson.M{"userId": uq.UserID, "questionId": uq.QuestionID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent upserts can race on the unique index; the loser
		// simply finds the record already there.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// CreateUserQuestion inserts uq and fails with ErrConflict if the user
// already tracks the question.
func (r *Repository) CreateUserQuestion(ctx context.Context, uq model.UserQuestion) error {
	_, err := r.userQuestions.InsertOne(ctx, userQuestionDoc(uq))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s for user %s", ErrConflict, uq.QuestionID, uq.UserID)
	}
	return err
}

func (r *Repository) GetUserQuestion(ctx context.Context, userID, questionID string) (*model.UserQuestion, error) {
	list, err := r.aggregateUserQuestions(ctx, bson.M{"userId": userID, "questionId": questionID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// ListUserQuestions returns a user's questions, newest first, joined with
// their question-bank entries.
func (r *Repository) ListUserQuestions(ctx context.Context, userID string) ([]model.UserQuestion, error) {
	return r.aggregateUserQuestions(ctx, bson.M{"userId": userID})
}

func (r *Repository) aggregateUserQuestions(ctx context.Context, match bson.M) ([]model.UserQuestion, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.questions.Name(),
			"localField":   "questionId",
			"foreignField": "_id",
			"as":           "question",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$question", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"question.problemStatement": 0}}},
	}
	cursor, err := r.userQuestions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := []model.UserQuestion{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (r *Repository) ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"bookmarked": bson.M{"$not": bson.A{"$bookmarked"}}}}},
	}
	var out model.UserQuestion
	err := r.userQuestions.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "questionId": questionID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return out.Bookmarked, nil
}

// DeleteUserQuestion removes a tracking record. It reports whether one existed.
func (r *Repository) DeleteUserQuestion(ctx context.Context, userID, questionID string) (bool, error) {
	res, err := r.userQuestions.DeleteOne(ctx, bson.M{"userId": userID, "questionId": questionID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func userQuestionDoc(uq model.UserQuestion) bson.M {
	createdAt := uq.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	verdict := uq.Verdict
	if verdict == "" {
		verdict = model.VerdictUnattempted
	}
	return bson.M{
		"userId":     uq.UserID,
		"questionId": uq.QuestionID,
		"verdict":    verdict,
		"bookmarked": uq.Bookmarked,
		"createdAt":  createdAt,
	}
}
