package model

import (
	"fmt"
	"time"
)

// Verdict is the judge outcome recorded against a user's question.
type Verdict string

const (
	VerdictUnattempted         Verdict = "Unattempted"
	VerdictOK                  Verdict = "OK"
	VerdictWrongAnswer         Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded   Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictRuntimeError        Verdict = "RUNTIME_ERROR"
	VerdictCompilationError    Verdict = "COMPILATION_ERROR"
	VerdictMemoryLimitExceeded Verdict = "MEMORY_LIMIT_EXCEEDED"
	VerdictIdlenessLimit       Verdict = "IDLENESS_LIMIT_EXCEEDED"
	VerdictPresentationError   Verdict = "PRESENTATION_ERROR"
	VerdictChallenged          Verdict = "CHALLENGED"
	VerdictSkipped             Verdict = "SKIPPED"
	VerdictFailed              Verdict = "FAILED"
	VerdictPartial             Verdict = "PARTIAL"
	VerdictRejected            Verdict = "REJECTED"
)

var knownVerdicts = map[Verdict]struct{}{
	VerdictUnattempted: {}, VerdictOK: {}, VerdictWrongAnswer: {}, VerdictTimeLimitExceeded: {},
	VerdictRuntimeError: {}, VerdictCompilationError: {}, VerdictMemoryLimitExceeded: {},
	VerdictIdlenessLimit: {}, VerdictPresentationError: {}, VerdictChallenged: {},
	VerdictSkipped: {}, VerdictFailed: {}, VerdictPartial: {}, VerdictRejected: {},
}

// Valid reports whether v is one of the enumerated verdicts.
func (v Verdict) Valid() bool {
	_, ok := knownVerdicts[v]
	return ok
}

// ProblemResult is one cell of a standings row.
type ProblemResult struct {
	Points float64 `json:"points"`
}

// Solved reports whether any points were earned.
func (r ProblemResult) Solved() bool { return r.Points > 0 }

// ContestParticipation is one user's standings row in one contest.
// ProblemResults is index-aligned with the contest's problem list.
type ContestParticipation struct {
	ContestID      string          `json:"contestId"`
	ProblemResults []ProblemResult `json:"problemResults"`
	IsOfficial     bool            `json:"isOfficial"`
}

// ProblemRef identifies a Codeforces problem. ContestID and Index form the
// composite key "{contestId}_{index}".
type ProblemRef struct {
	ContestID string   `json:"contestId" bson:"contestId"`
	Index     string   `json:"index" bson:"index"`
	Name      string   `json:"name" bson:"name"`
	Rating    *int     `json:"rating" bson:"rating"`
	Tags      []string `json:"tags" bson:"tags"`
	Link      string   `json:"link" bson:"link"`
}

// Key returns the composite storage key.
func (p ProblemRef) Key() string {
	return fmt.Sprintf("%s_%s", p.ContestID, p.Index)
}

// UpsolveCandidate is a problem queued for a user to revisit.
type UpsolveCandidate struct {
	ProblemRef
	Verdict    Verdict   `json:"verdict"`
	Bookmarked bool      `json:"bookmarked"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuestionID is the composite key of the candidate's problem.
func (c UpsolveCandidate) QuestionID() string { return c.Key() }
