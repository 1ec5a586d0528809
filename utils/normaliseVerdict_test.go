package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upsolve/model"
)

func TestNormalizeVerdict(t *testing.T) {
	cases := map[string]model.Verdict{
		"OK":                  model.VerdictOK,
		"accepted":            model.VerdictOK,
		" wa ":                model.VerdictWrongAnswer,
		"time limit exceeded": model.VerdictTimeLimitExceeded,
		"RUNTIME_ERROR":       model.VerdictRuntimeError,
		"compilation-error":   model.VerdictCompilationError,
		"Unattempted":         model.VerdictUnattempted,
		"CHALLENGED":          model.VerdictChallenged,
	}
	for in, want := range cases {
		got, ok := NormalizeVerdict(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.Valid(), in)
	}

	for _, in := range []string{"TESTING", "", "bogus"} {
		_, ok := NormalizeVerdict(in)
		assert.False(t, ok, in)
	}
}
