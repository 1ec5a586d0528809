package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"upsolve/codeforces"
	"upsolve/logger"
	"upsolve/model"
	"upsolve/ratelimit"
)

// StandingsClient is the slice of the Codeforces API the resolver needs.
type StandingsClient interface {
	ContestStandings(ctx context.Context, contestID, handle string, showUnofficial bool) (*codeforces.Standings, error)
}

type ResolverConfig struct {
	BaseURL string
	// ContestDelay is the pause between two contests.
	ContestDelay time.Duration
}

// Resolver turns a handle's contest history into upsolve candidates.
type Resolver struct {
	source  PageSource
	client  StandingsClient
	limiter *ratelimit.Limiter
	cfg     ResolverConfig
	logger  *logger.Logger
	now     func() time.Time
}

func NewResolver(source PageSource, client StandingsClient, limiter *ratelimit.Limiter, cfg ResolverConfig, log *logger.Logger) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = codeforces.DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		source:  source,
		client:  client,
		limiter: limiter,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}
}

// ResolveUpsolveSet walks every contest the handle took part in, one at a
// time, and returns the problems worth upsolving. A contest whose standings
// cannot be fetched is logged and skipped.
func (r *Resolver) ResolveUpsolveSet(ctx context.Context, handle string) ([]model.UpsolveCandidate, error) {
	traceID := uuid.New().String()
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrInvalidHandle
	}

	historyURL := codeforces.ContestHistoryURL(r.cfg.BaseURL, handle)
	links, err := ratelimit.Schedule(ctx, r.limiter, func(ctx context.Context) ([]string, error) {
		return r.source.ContestLinks(ctx, historyURL)
	})
	if err != nil {
		r.logger.Log(zapcore.ErrorLevel, traceID, "Failed to read contest history", map[string]any{
			"method":    "ResolveUpsolveSet",
			"handle":    handle,
			"errorType": ErrorType(err),
		}, "RESOLVER", err)
		return nil, err
	}

	r.logger.Log(zapcore.InfoLevel, traceID, "Resolving upsolve set", map[string]any{
		"method":   "ResolveUpsolveSet",
		"handle":   handle,
		"contests": len(links),
	}, "RESOLVER", nil)

	out := []model.UpsolveCandidate{}
	for i, link := range links {
		if i > 0 {
			if err := sleep(ctx, r.cfg.ContestDelay); err != nil {
				return nil, err
			}
		}

		contestID, err := codeforces.ContestIDFromStandingsLink(link)
		if err != nil {
			r.logger.Log(zapcore.WarnLevel, traceID, "Skipping unrecognised contest link", map[string]any{
				"method": "ResolveUpsolveSet",
				"link":   link,
			}, "RESOLVER", err)
			continue
		}

		found, err := r.resolveContest(ctx, contestID, handle)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Log(zapcore.WarnLevel, traceID, "Skipping contest", map[string]any{
				"method":    "ResolveUpsolveSet",
				"contestId": contestID,
				"errorType": ErrorType(err),
			}, "RESOLVER", err)
			continue
		}
		out = append(out, found...)
	}

	r.logger.Log(zapcore.InfoLevel, traceID, "Resolved upsolve set", map[string]any{
		"method":     "ResolveUpsolveSet",
		"handle":     handle,
		"candidates": len(out),
	}, "RESOLVER", nil)
	return out, nil
}

func (r *Resolver) resolveContest(ctx context.Context, contestID, handle string) ([]model.UpsolveCandidate, error) {
	st, err := ratelimit.Schedule(ctx, r.limiter, func(ctx context.Context) (*codeforces.Standings, error) {
		return r.client.ContestStandings(ctx, contestID, handle, true)
	})
	if err != nil {
		return nil, err
	}
	return candidatesFromStandings(contestID, st, r.cfg.BaseURL, r.now())
}

// candidatesFromStandings applies SelectCandidates to one standings payload
// and enriches the chosen indices with problem metadata.
func candidatesFromStandings(contestID string, st *codeforces.Standings, baseURL string, now time.Time) ([]model.UpsolveCandidate, error) {
	if len(st.Rows) == 0 {
		return nil, nil
	}
	official := participation(contestID, st.Rows[0], true)
	if len(official.ProblemResults) != len(st.Problems) {
		return nil, fmt.Errorf("%w: contest %s has %d problems but %d results",
			ErrScrapeStructure, contestID, len(st.Problems), len(official.ProblemResults))
	}
	var unofficial *model.ContestParticipation
	if len(st.Rows) > 1 {
		p := participation(contestID, st.Rows[1], false)
		unofficial = &p
	}

	picked := SelectCandidates(official, unofficial)
	out := make([]model.UpsolveCandidate, 0, len(picked))
	for _, i := range picked {
		out = append(out, model.UpsolveCandidate{
			ProblemRef: problemRef(contestID, st.Problems[i], baseURL),
			Verdict:    model.VerdictUnattempted,
			Bookmarked: false,
			CreatedAt:  now,
		})
	}
	return out, nil
}

// SelectCandidates returns the problem indices to upsolve for one contest, in
// the order they were found.
//
// The official row is scanned from the last problem to the first. The first
// solved problem met marks the frontier; the problem right after it, if any,
// is a candidate, and so is every unsolved problem before it. Unsolved
// problems after the frontier are left out as out of reach. Anything solved
// in the unofficial row is dropped.
func SelectCandidates(official model.ContestParticipation, unofficial *model.ContestParticipation) []int {
	res := official.ProblemResults
	solvedFound := false
	var picked []int
	for i := len(res) - 1; i >= 0; i-- {
		if res[i].Solved() && !solvedFound {
			solvedFound = true
			if i+1 < len(res) {
				picked = append(picked, i+1)
			}
		} else if solvedFound && res[i].Points == 0 {
			picked = append(picked, i)
		}
	}

	if unofficial == nil {
		return picked
	}
	out := picked[:0]
	for _, i := range picked {
		if i < len(unofficial.ProblemResults) && unofficial.ProblemResults[i].Solved() {
			continue
		}
		out = append(out, i)
	}
	return out
}

func participation(contestID string, row codeforces.RanklistRow, official bool) model.ContestParticipation {
	results := make([]model.ProblemResult, len(row.ProblemResults))
	for i, pr := range row.ProblemResults {
		results[i] = model.ProblemResult{Points: pr.Points}
	}
	return model.ContestParticipation{ContestID: contestID, ProblemResults: results, IsOfficial: official}
}

func problemRef(contestID string, p codeforces.Problem, baseURL string) model.ProblemRef {
	var rating *int
	if p.Rating > 0 {
		r := p.Rating
		rating = &r
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.ProblemRef{
		ContestID: contestID,
		Index:     p.Index,
		Name:      p.Name,
		Rating:    rating,
		Tags:      tags,
		Link:      codeforces.ProblemLink(baseURL, contestID, p.Index),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsFatal reports whether err should stop a batch rather than skip an item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
