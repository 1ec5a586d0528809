package model

import (
	"time"
)

// GenericResponse is the envelope used on the NATS reply subjects.
type GenericResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	ErrorType string `json:"errorType"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// User links an application user to a Codeforces handle.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Handle    string    `bson:"handle" json:"handle"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Question is a question-bank entry, shared by every user tracking it.
// ID is the composite "{contestId}_{index}" key.
type Question struct {
	ID               string    `bson:"_id" json:"id"`
	Platform         string    `bson:"platform" json:"platform"`
	Name             string    `bson:"name" json:"name"`
	Link             string    `bson:"link" json:"link"`
	Rating           *int      `bson:"rating,omitempty" json:"rating,omitempty"`
	Tags             []string  `bson:"tags" json:"tags"`
	ProblemStatement string    `bson:"problemStatement,omitempty" json:"problemStatement,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

// UserQuestion is a user's tracking record for one question, unique per
// (UserID, QuestionID).
type UserQuestion struct {
	UserID     string    `bson:"userId" json:"userId"`
	QuestionID string    `bson:"questionId" json:"questionId"`
	Verdict    Verdict   `bson:"verdict" json:"verdict"`
	Bookmarked bool      `bson:"bookmarked" json:"bookmarked"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	Question   *Question `bson:"question,omitempty" json:"question,omitempty"`
}

const PlatformCodeforces = "codeforces"

// QuestionFromRef builds the question-bank entry for a problem.
func QuestionFromRef(p ProblemRef, now time.Time) Question {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Question{
		ID:        p.Key(),
		Platform:  PlatformCodeforces,
		Name:      p.Name,
		Link:      p.Link,
		Rating:    p.Rating,
		Tags:      tags,
		CreatedAt: now,
	}
}

// UserQuestionFromCandidate builds the tracking record for a resolved candidate.
func UserQuestionFromCandidate(userID string, c UpsolveCandidate) UserQuestion {
	return UserQuestion{
		UserID:     userID,
		QuestionID: c.QuestionID(),
		Verdict:    c.Verdict,
		Bookmarked: c.Bookmarked,
		CreatedAt:  c.CreatedAt,
	}
}
