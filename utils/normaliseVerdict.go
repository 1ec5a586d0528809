package utils

import (
	"strings"

	"upsolve/model"
)

// NormalizeVerdict maps judge verdict strings and common shorthands onto the
// verdict enumeration. ok is false for verdicts that are not final, such as
// TESTING, and for anything unrecognised.
func NormalizeVerdict(raw string) (model.Verdict, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)

	verdictMap := map[string]model.Verdict{
		"OK":       model.VerdictOK,
		"AC":       model.VerdictOK,
		"ACCEPTED": model.VerdictOK,

		"WRONG_ANSWER": model.VerdictWrongAnswer,
		"WA":           model.VerdictWrongAnswer,

		"TIME_LIMIT_EXCEEDED": model.VerdictTimeLimitExceeded,
		"TLE":                 model.VerdictTimeLimitExceeded,

		"MEMORY_LIMIT_EXCEEDED": model.VerdictMemoryLimitExceeded,
		"MLE":                   model.VerdictMemoryLimitExceeded,

		"RUNTIME_ERROR": model.VerdictRuntimeError,
		"RE":            model.VerdictRuntimeError,
		"RTE":           model.VerdictRuntimeError,

		"COMPILATION_ERROR": model.VerdictCompilationError,
		"CE":                model.VerdictCompilationError,

		"IDLENESS_LIMIT_EXCEEDED": model.VerdictIdlenessLimit,
		"ILE":                     model.VerdictIdlenessLimit,

		"PRESENTATION_ERROR": model.VerdictPresentationError,
		"CHALLENGED":         model.VerdictChallenged,
		"SKIPPED":            model.VerdictSkipped,
		"FAILED":             model.VerdictFailed,
		"PARTIAL":            model.VerdictPartial,
		"REJECTED":           model.VerdictRejected,

		"UNATTEMPTED": model.VerdictUnattempted,
	}

	if normalized, ok := verdictMap[v]; ok {
		return normalized, true
	}
	return "", false
}
