package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemRefKey(t *testing.T) {
	p := ProblemRef{ContestID: "1850", Index: "C"}
	assert.Equal(t, "1850_C", p.Key())
	assert.Equal(t, "1850_C", UpsolveCandidate{ProblemRef: p}.QuestionID())
}

func TestVerdictValid(t *testing.T) {
	assert.True(t, VerdictUnattempted.Valid())
	assert.True(t, VerdictWrongAnswer.Valid())
	assert.False(t, Verdict("MAYBE").Valid())
}

func TestStatementJSONFieldNames(t *testing.T) {
	s := ScrapedProblemStatement{
		Title:           Prose("A. Sum"),
		TimeLimit:       "1 second",
		MemoryLimit:     "256 megabytes",
		Statement:       Prose("Add a <b> b"),
		InputStatement:  Prose("Two integers"),
		OutputStatement: Prose("One integer"),
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "A. Sum", m["titleRaw"])
	assert.Equal(t, "<p>A. Sum</p>", m["titleFormatted"])
	assert.Equal(t, "1 second", m["timeLimit"])
	assert.Equal(t, "Add a <b> b", m["problemStatementRaw"])
	assert.Equal(t, "<p>Add a &lt;b&gt; b</p>", m["problemStatementFormatted"])
	assert.Contains(t, m, "inputStatementFormatted")
	assert.Contains(t, m, "outputStatementRaw")
	assert.NotContains(t, m, "noteRaw")
	assert.NotContains(t, m, "examplesRaw")
}

func TestStatementUnmarshalRecomputesFormatted(t *testing.T) {
	payload := `{"titleRaw":"B. Pairs","titleFormatted":"stale","timeLimit":"2 seconds",
		"examplesRaw":"input\n1\noutput\n2","noteRaw":"none"}`
	var s ScrapedProblemStatement
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, "B. Pairs", s.Title.Raw)
	assert.Equal(t, "<p>B. Pairs</p>", s.Title.Formatted())
	assert.Equal(t, "2 seconds", s.TimeLimit)
	assert.Equal(t, "input\n1\noutput\n2", s.Examples.Raw)
	assert.Contains(t, s.Examples.Formatted(), "<b>input</b>")
	assert.False(t, s.Note.Empty())
}

func TestQuestionFromRef(t *testing.T) {
	rating := 1400
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := QuestionFromRef(ProblemRef{ContestID: "1", Index: "A", Name: "X", Rating: &rating}, now)
	assert.Equal(t, "1_A", q.ID)
	assert.Equal(t, PlatformCodeforces, q.Platform)
	assert.Equal(t, []string{}, q.Tags)
	assert.Equal(t, now, q.CreatedAt)
}
