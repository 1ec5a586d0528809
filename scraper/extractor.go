package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"upsolve/codeforces"
	"upsolve/logger"
	"upsolve/model"
	"upsolve/ratelimit"
)

// Positions of the statement node's children. The page uses unlabeled
// containers, so position is the only thing to go by.
const (
	MetadataIndex  = 0
	StatementIndex = 1
	InputIndex     = 2
	OutputIndex    = 3
	ExamplesIndex  = 4
	NoteIndex      = 5

	minSections = OutputIndex + 1
)

const (
	timeLimitLabel   = "time limit per test"
	memoryLimitLabel = "memory limit per test"
)

// Extractor scrapes one problem page into a ScrapedProblemStatement.
type Extractor struct {
	source  PageSource
	limiter *ratelimit.Limiter
	logger  *logger.Logger
}

func NewExtractor(source PageSource, limiter *ratelimit.Limiter, log *logger.Logger) *Extractor {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{source: source, limiter: limiter, logger: log}
}

// ExtractProblem validates url, scrapes the page and normalises it. It
// returns either a complete statement or an error, never a partial one.
func (e *Extractor) ExtractProblem(ctx context.Context, url string) (*model.ScrapedProblemStatement, error) {
	traceID := uuid.New().String()
	if _, _, err := codeforces.ParseProblemURL(url); err != nil {
		e.logger.Log(zapcore.WarnLevel, traceID, "Rejected problem url", map[string]any{
			"method":    "ExtractProblem",
			"url":       url,
			"errorType": ErrorType(err),
		}, "EXTRACTOR", err)
		return nil, err
	}

	sections, err := ratelimit.Schedule(ctx, e.limiter, func(ctx context.Context) ([]string, error) {
		return e.source.StatementSections(ctx, url)
	})
	if err != nil {
		e.logger.Log(zapcore.ErrorLevel, traceID, "Failed to scrape problem page", map[string]any{
			"method":    "ExtractProblem",
			"url":       url,
			"errorType": ErrorType(err),
		}, "EXTRACTOR", err)
		return nil, err
	}

	st, err := BuildStatement(sections)
	if err != nil {
		e.logger.Log(zapcore.ErrorLevel, traceID, "Problem page layout changed", map[string]any{
			"method":    "ExtractProblem",
			"url":       url,
			"sections":  len(sections),
			"errorType": ErrorType(err),
		}, "EXTRACTOR", err)
		return nil, err
	}

	e.logger.Log(zapcore.DebugLevel, traceID, "Extracted problem", map[string]any{
		"method":   "ExtractProblem",
		"url":      url,
		"sections": len(sections),
	}, "EXTRACTOR", nil)
	return st, nil
}

// BuildStatement normalises the flattened statement children in DOM order.
// The examples and note children are optional; fewer than four children is
// an ErrScrapeStructure.
func BuildStatement(sections []string) (*model.ScrapedProblemStatement, error) {
	if len(sections) < minSections {
		return nil, fmt.Errorf("%w: got %d sections, want at least %d", ErrScrapeStructure, len(sections), minSections)
	}
	at := func(i int) string {
		if i < len(sections) {
			return sections[i]
		}
		return ""
	}

	metadata := at(MetadataIndex)
	if strings.TrimSpace(metadata) == "" {
		return nil, fmt.Errorf("%w: empty metadata section", ErrScrapeStructure)
	}
	lines := strings.Split(metadata, "\n")
	line := func(i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	examples := at(ExamplesIndex)
	examples = strings.ReplaceAll(examples, "input\nCopy", "input\n")
	examples = strings.ReplaceAll(examples, "output\nCopy", "output\n")
	examples = stripLabel(examples, "Example\n")
	examples = stripLabel(examples, "Examples\n")

	return &model.ScrapedProblemStatement{
		Title:           model.Prose(normalise(line(0))),
		TimeLimit:       normalise(strings.Replace(line(1), timeLimitLabel, "", 1)),
		MemoryLimit:     normalise(strings.Replace(line(2), memoryLimitLabel, "", 1)),
		Statement:       model.Prose(normalise(at(StatementIndex))),
		InputStatement:  model.Prose(normalise(stripLabel(at(InputIndex), "Input"))),
		OutputStatement: model.Prose(normalise(stripLabel(at(OutputIndex), "Output"))),
		Examples:        model.Examples(normalise(examples)),
		Note:            model.Prose(normalise(stripLabel(at(NoteIndex), "Note\n"))),
	}, nil
}

// stripLabel removes the first occurrence of label and trims.
func stripLabel(s, label string) string {
	return strings.TrimSpace(strings.Replace(s, label, "", 1))
}

func normalise(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n\n", "\n")
}
