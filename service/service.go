package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"

	"upsolve/cache"
	"upsolve/codeforces"
	"upsolve/logger"
	"upsolve/model"
	"upsolve/natsclient"
	"upsolve/ratelimit"
	"upsolve/repository"
	"upsolve/scraper"
	"upsolve/utils"
)

// Store is the persistence the service needs. *repository.Repository
// implements it.
type Store interface {
	UpsertUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	UpsertQuestion(ctx context.Context, q model.Question) error
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	SaveStatement(ctx context.Context, id, statement string) error

	UpsertUserQuestion(ctx context.Context, uq model.UserQuestion) (bool, error)
	CreateUserQuestion(ctx context.Context, uq model.UserQuestion) error
	GetUserQuestion(ctx context.Context, userID, questionID string) (*model.UserQuestion, error)
	ListUserQuestions(ctx context.Context, userID string) ([]model.UserQuestion, error)
	ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error)
	DeleteUserQuestion(ctx context.Context, userID, questionID string) (bool, error)
}

type UpsolveResolver interface {
	ResolveUpsolveSet(ctx context.Context, handle string) ([]model.UpsolveCandidate, error)
}

type ProblemExtractor interface {
	ExtractProblem(ctx context.Context, url string) (*model.ScrapedProblemStatement, error)
}

// CodeforcesAPI is the part of the API client used outside the resolver.
type CodeforcesAPI interface {
	UserStatus(ctx context.Context, handle string) ([]codeforces.Submission, error)
	ContestProblems(ctx context.Context, contestID string) ([]codeforces.Problem, error)
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

type Options struct {
	BaseURL string
	// StatementCacheTTL of zero caches statements without expiry.
	StatementCacheTTL time.Duration
	ListCacheTTL      time.Duration
	ResyncSchedule    string
}

// UpsolveService ties the scrapers to storage.
type UpsolveService struct {
	store     Store
	resolver  UpsolveResolver
	extractor ProblemExtractor
	cf        CodeforcesAPI
	limiter   *ratelimit.Limiter
	cache     cache.Cache
	publisher Publisher
	logger    *logger.Logger
	opts      Options
	now       func() time.Time
}

func NewService(store Store, resolver UpsolveResolver, extractor ProblemExtractor, cf CodeforcesAPI,
	limiter *ratelimit.Limiter, c cache.Cache, publisher Publisher, log *logger.Logger, opts Options) *UpsolveService {
	if opts.BaseURL == "" {
		opts.BaseURL = codeforces.DefaultBaseURL
	}
	if opts.ListCacheTTL == 0 {
		opts.ListCacheTTL = 30 * time.Second
	}
	if opts.ResyncSchedule == "" {
		opts.ResyncSchedule = "@every 24h"
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if log == nil {
		log = logger.Nop()
	}
	svc := &UpsolveService{
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		cf:        cf,
		limiter:   limiter,
		cache:     c,
		publisher: publisher,
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
	svc.logger.Log(zapcore.InfoLevel, uuid.New().String(), "UpsolveService initialized", map[string]any{
		"method": "NewService",
	}, "SERVICE", nil)
	return svc
}

// StartCronJob schedules a periodic resync of every tracked handle. The
// returned scheduler is already running; Stop it on shutdown.
func (s *UpsolveService) StartCronJob() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(s.opts.ResyncSchedule, func() {
		traceID := uuid.New().String()
		s.logger.Log(zapcore.InfoLevel, traceID, "Resyncing upsolve sets "+s.now().Format(time.RFC3339), map[string]any{
			"method": "RESYNC CRON JOB",
		}, "SERVICE", nil)
		if err := s.ResyncAll(context.Background()); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Resync aborted", map[string]any{
				"method":    "RESYNC CRON JOB",
				"errorType": scraper.ErrorType(err),
			}, "SERVICE", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: resync schedule %q: %v", ErrInvalidInput, s.opts.ResyncSchedule, err)
	}
	c.Start()
	return c, nil
}

// RegisterUser records the Codeforces handle of an application user.
func (s *UpsolveService) RegisterUser(ctx context.Context, userID, handle string) error {
	traceID := uuid.New().String()
	handle = strings.TrimSpace(handle)
	if userID == "" || handle == "" {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Missing user ID or handle", map[string]any{
			"method":    "RegisterUser",
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", nil)
		return fmt.Errorf("%w: user id and handle are required", ErrInvalidInput)
	}
	if err := s.store.UpsertUser(ctx, model.User{ID: userID, Handle: handle, CreatedAt: s.now()}); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to save user", map[string]any{
			"method":    "RegisterUser",
			"userId":    userID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return err
	}
	return nil
}

func (s *UpsolveService) handleFor(ctx context.Context, traceID, method, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load user", map[string]any{
			"method":    method,
			"userId":    userID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return "", err
	}
	if strings.TrimSpace(u.Handle) == "" {
		return "", fmt.Errorf("%w: user %s has no handle set", scraper.ErrInvalidHandle, userID)
	}
	return u.Handle, nil
}

// ResolveResult summarises one resolve run.
type ResolveResult struct {
	UserID     string `json:"userId"`
	Handle     string `json:"handle"`
	Candidates int    `json:"candidates"`
	Created    int    `json:"created"`
}

// ResolveForUser resolves the user's upsolve set and stores every candidate.
// Records the user already has are left as they are, so running it twice
// changes nothing.
func (s *UpsolveService) ResolveForUser(ctx context.Context, userID string) (*ResolveResult, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting ResolveForUser", map[string]any{
		"method": "ResolveForUser",
		"userId": userID,
	}, "SERVICE", nil)

	handle, err := s.handleFor(ctx, traceID, "ResolveForUser", userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.resolver.ResolveUpsolveSet(ctx, handle)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to resolve upsolve set", map[string]any{
			"method":    "ResolveForUser",
			"handle":    handle,
			"errorType": scraper.ErrorType(err),
		}, "SERVICE", err)
		return nil, err
	}

	res := &ResolveResult{UserID: userID, Handle: handle, Candidates: len(candidates)}
	for _, c := range candidates {
		if err := s.store.UpsertQuestion(ctx, model.QuestionFromRef(c.ProblemRef, s.now())); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to upsert question", map[string]any{
				"method":     "ResolveForUser",
				"questionId": c.QuestionID(),
				"errorType":  "DB_ERROR",
			}, "SERVICE", err)
			return nil, err
		}
		created, err := s.store.UpsertUserQuestion(ctx, model.UserQuestionFromCandidate(userID, c))
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to upsert user question", map[string]any{
				"method":     "ResolveForUser",
				"questionId": c.QuestionID(),
				"errorType":  "DB_ERROR",
			}, "SERVICE", err)
			return nil, err
		}
		if created {
			res.Created++
		}
	}
	s.invalidateList(ctx, traceID, userID)
	s.publish(traceID, natsclient.SubjectResolved, res)

	s.logger.Log(zapcore.InfoLevel, traceID, "Upsolve set stored", map[string]any{
		"method":     "ResolveForUser",
		"userId":     userID,
		"candidates": res.Candidates,
		"created":    res.Created,
	}, "SERVICE", nil)
	return res, nil
}

// ResyncAll resolves every user with a handle. Per-user failures are logged
// and skipped; a missing browser or a cancelled context stops the run.
func (s *UpsolveService) ResyncAll(ctx context.Context) error {
	traceID := uuid.New().String()
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list users", map[string]any{
			"method":    "ResyncAll",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return err
	}
	for _, u := range users {
		if _, err := s.ResolveForUser(ctx, u.ID); err != nil {
			if scraper.IsFatal(err) {
				return err
			}
			s.logger.Log(zapcore.WarnLevel, traceID, "Skipping user in resync", map[string]any{
				"method":    "ResyncAll",
				"userId":    u.ID,
				"errorType": scraper.ErrorType(err),
			}, "SERVICE", err)
		}
	}
	return nil
}

// GetStatement returns the scraped statement for a question, scraping and
// storing it on first use. refresh forces a new scrape. A failed scrape
// stores nothing.
func (s *UpsolveService) GetStatement(ctx context.Context, questionID string, refresh bool) (*model.ScrapedProblemStatement, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetStatement", map[string]any{
		"method":     "GetStatement",
		"questionId": questionID,
		"refresh":    refresh,
	}, "SERVICE", nil)

	contestID, index, err := codeforces.ParseKey(questionID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Invalid question ID", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"errorType":  "VALIDATION_ERROR",
		}, "SERVICE", err)
		return nil, err
	}

	cacheKey := cache.StatementKey(questionID)
	if !refresh {
		if st := s.cachedStatement(ctx, traceID, cacheKey); st != nil {
			return st, nil
		}
	}

	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to retrieve question from DB", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"errorType":  "DB_ERROR",
		}, "SERVICE", err)
		return nil, err
	}

	if question != nil && question.ProblemStatement != "" && !refresh {
		var st model.ScrapedProblemStatement
		if err := json.Unmarshal([]byte(question.ProblemStatement), &st); err == nil {
			s.cacheStatement(ctx, traceID, cacheKey, []byte(question.ProblemStatement))
			return &st, nil
		}
		s.logger.Log(zapcore.WarnLevel, traceID, "Stored statement unreadable, scraping again", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"errorType":  "MARSHAL_ERROR",
		}, "SERVICE", nil)
	}

	link := codeforces.ProblemLink(s.opts.BaseURL, contestID, index)
	if question != nil && question.Link != "" {
		link = question.Link
	}
	st, err := s.extractor.ExtractProblem(ctx, link)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to scrape statement", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"link":       link,
			"errorType":  scraper.ErrorType(err),
		}, "SERVICE", err)
		return nil, err
	}

	stBytes, err := json.Marshal(st)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to marshal statement", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"errorType":  "MARSHAL_ERROR",
		}, "SERVICE", err)
		return nil, err
	}

	if question == nil {
		q := model.Question{
			ID:        questionID,
			Platform:  model.PlatformCodeforces,
			Name:      st.Title.Raw,
			Link:      link,
			Tags:      []string{},
			CreatedAt: s.now(),
		}
		if err := s.store.UpsertQuestion(ctx, q); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to create question", map[string]any{
				"method":     "GetStatement",
				"questionId": questionID,
				"errorType":  "DB_ERROR",
			}, "SERVICE", err)
			return nil, err
		}
	}
	if err := s.store.SaveStatement(ctx, questionID, string(stBytes)); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to store statement", map[string]any{
			"method":     "GetStatement",
			"questionId": questionID,
			"errorType":  "DB_ERROR",
		}, "SERVICE", err)
		return nil, err
	}
	s.cacheStatement(ctx, traceID, cacheKey, stBytes)

	s.logger.Log(zapcore.InfoLevel, traceID, "Statement scraped and stored", map[string]any{
		"method":     "GetStatement",
		"questionId": questionID,
	}, "SERVICE", nil)
	return st, nil
}

func (s *UpsolveService) cachedStatement(ctx context.Context, traceID, cacheKey string) *model.ScrapedProblemStatement {
	cached, err := s.cache.Get(ctx, cacheKey)
	if err != nil || cached == nil {
		return nil
	}
	cachedStr, ok := cached.(string)
	if !ok {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to assert cached statement to string", map[string]any{
			"method":    "GetStatement",
			"cacheKey":  cacheKey,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", nil)
		return nil
	}
	var st model.ScrapedProblemStatement
	if err := json.Unmarshal([]byte(cachedStr), &st); err != nil {
		return nil
	}
	s.logger.Log(zapcore.InfoLevel, traceID, "Statement retrieved from cache", map[string]any{
		"method":   "GetStatement",
		"cacheKey": cacheKey,
	}, "SERVICE", nil)
	return &st
}

func (s *UpsolveService) cacheStatement(ctx context.Context, traceID, cacheKey string, data []byte) {
	if err := s.cache.Set(ctx, cacheKey, data, s.opts.StatementCacheTTL); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to cache statement", map[string]any{
			"method":    "GetStatement",
			"cacheKey":  cacheKey,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
}

// ImportResult summarises a faulty-submission import.
type ImportResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// ImportFaultySubmissions looks at the newest submission per problem. A
// failing verdict adds the problem to the user's list with that verdict; an
// accepted one removes it.
func (s *UpsolveService) ImportFaultySubmissions(ctx context.Context, userID string) (*ImportResult, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting ImportFaultySubmissions", map[string]any{
		"method": "ImportFaultySubmissions",
		"userId": userID,
	}, "SERVICE", nil)

	handle, err := s.handleFor(ctx, traceID, "ImportFaultySubmissions", userID)
	if err != nil {
		return nil, err
	}

	subs, err := ratelimit.Schedule(ctx, s.limiter, func(ctx context.Context) ([]codeforces.Submission, error) {
		return s.cf.UserStatus(ctx, handle)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to fetch submissions", map[string]any{
			"method":    "ImportFaultySubmissions",
			"handle":    handle,
			"errorType": scraper.ErrorType(err),
		}, "SERVICE", err)
		return nil, err
	}

	res := &ImportResult{}
	for _, sub := range latestPerProblem(subs) {
		verdict, ok := utils.NormalizeVerdict(sub.Verdict)
		if !ok {
			continue
		}
		ref := model.ProblemRef{
			ContestID: fmt.Sprint(sub.Problem.ContestID),
			Index:     sub.Problem.Index,
			Name:      sub.Problem.Name,
			Tags:      sub.Problem.Tags,
			Link:      codeforces.ProblemLink(s.opts.BaseURL, fmt.Sprint(sub.Problem.ContestID), sub.Problem.Index),
		}
		if sub.Problem.Rating > 0 {
			r := sub.Problem.Rating
			ref.Rating = &r
		}

		if verdict == model.VerdictOK {
			removed, err := s.store.DeleteUserQuestion(ctx, userID, ref.Key())
			if err != nil {
				s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to remove solved question", map[string]any{
					"method":     "ImportFaultySubmissions",
					"questionId": ref.Key(),
					"errorType":  "DB_ERROR",
				}, "SERVICE", err)
				return nil, err
			}
			if removed {
				res.Removed++
			}
			continue
		}

		if err := s.store.UpsertQuestion(ctx, model.QuestionFromRef(ref, s.now())); err != nil {
			return nil, err
		}
		created, err := s.store.UpsertUserQuestion(ctx, model.UserQuestion{
			UserID:     userID,
			QuestionID: ref.Key(),
			Verdict:    verdict,
			CreatedAt:  s.now(),
		})
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to add faulty question", map[string]any{
				"method":     "ImportFaultySubmissions",
				"questionId": ref.Key(),
				"errorType":  "DB_ERROR",
			}, "SERVICE", err)
			return nil, err
		}
		if created {
			res.Added++
		}
	}
	s.invalidateList(ctx, traceID, userID)
	return res, nil
}

// latestPerProblem keeps the newest submission of each contest problem.
func latestPerProblem(subs []codeforces.Submission) []codeforces.Submission {
	sorted := append([]codeforces.Submission(nil), subs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreationTimeSeconds > sorted[j].CreationTimeSeconds
	})
	seen := map[string]bool{}
	out := []codeforces.Submission{}
	for _, sub := range sorted {
		if sub.Problem.ContestID == 0 || sub.Problem.Index == "" {
			continue
		}
		key := codeforces.Key(fmt.Sprint(sub.Problem.ContestID), sub.Problem.Index)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sub)
	}
	return out
}

// AddQuestionByURL bookmarks the problem at url for the user. It fails with
// ErrConflict if the user already tracks it.
func (s *UpsolveService) AddQuestionByURL(ctx context.Context, userID, url string) (*model.UserQuestion, error) {
	traceID := uuid.New().String()
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	contestID, index, err := codeforces.ParseProblemURL(url)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Invalid question URL", map[string]any{
			"method":    "AddQuestionByURL",
			"url":       url,
			"errorType": "INVALID_URL",
		}, "SERVICE", err)
		return nil, err
	}

	problems, err := ratelimit.Schedule(ctx, s.limiter, func(ctx context.Context) ([]codeforces.Problem, error) {
		return s.cf.ContestProblems(ctx, contestID)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to fetch contest problems", map[string]any{
			"method":    "AddQuestionByURL",
			"contestId": contestID,
			"errorType": scraper.ErrorType(err),
		}, "SERVICE", err)
		return nil, err
	}

	var found *codeforces.Problem
	for i := range problems {
		if strings.EqualFold(problems[i].Index, index) {
			found = &problems[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: problem %s not in contest %s", repository.ErrNotFound, index, contestID)
	}

	ref := model.ProblemRef{
		ContestID: contestID,
		Index:     found.Index,
		Name:      found.Name,
		Tags:      found.Tags,
		Link:      codeforces.ProblemLink(s.opts.BaseURL, contestID, found.Index),
	}
	if found.Rating > 0 {
		r := found.Rating
		ref.Rating = &r
	}
	question := model.QuestionFromRef(ref, s.now())
	if err := s.store.UpsertQuestion(ctx, question); err != nil {
		return nil, err
	}

	uq := model.UserQuestion{
		UserID:     userID,
		QuestionID: ref.Key(),
		Verdict:    model.VerdictUnattempted,
		Bookmarked: true,
		CreatedAt:  s.now(),
		Question:   &question,
	}
	if err := s.store.CreateUserQuestion(ctx, uq); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to add question", map[string]any{
			"method":     "AddQuestionByURL",
			"questionId": uq.QuestionID,
			"errorType":  "DB_ERROR",
		}, "SERVICE", err)
		return nil, err
	}
	s.invalidateList(ctx, traceID, userID)
	return &uq, nil
}

// ToggleBookmark flips a question's bookmark and returns the new state.
func (s *UpsolveService) ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error) {
	traceID := uuid.New().String()
	on, err := s.store.ToggleBookmark(ctx, userID, questionID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to toggle bookmark", map[string]any{
			"method":     "ToggleBookmark",
			"questionId": questionID,
			"errorType":  "DB_ERROR",
		}, "SERVICE", err)
		return false, err
	}
	s.invalidateList(ctx, traceID, userID)
	return on, nil
}

// RemoveQuestion stops tracking a question for the user.
func (s *UpsolveService) RemoveQuestion(ctx context.Context, userID, questionID string) error {
	traceID := uuid.New().String()
	removed, err := s.store.DeleteUserQuestion(ctx, userID, questionID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to remove question", map[string]any{
			"method":     "RemoveQuestion",
			"questionId": questionID,
			"errorType":  "DB_ERROR",
		}, "SERVICE", err)
		return err
	}
	if !removed {
		return fmt.Errorf("%w: question %s", repository.ErrNotFound, questionID)
	}
	s.invalidateList(ctx, traceID, userID)
	return nil
}

// GetUserQuestion returns one tracked question with its bank entry.
func (s *UpsolveService) GetUserQuestion(ctx context.Context, userID, questionID string) (*model.UserQuestion, error) {
	return s.store.GetUserQuestion(ctx, userID, questionID)
}

// ListQuestions returns the user's tracked questions, newest first.
func (s *UpsolveService) ListQuestions(ctx context.Context, userID string) ([]model.UserQuestion, error) {
	traceID := uuid.New().String()
	cacheKey := cache.UserQuestionsKey(userID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		if cachedStr, ok := cached.(string); ok {
			var list []model.UserQuestion
			if err := json.Unmarshal([]byte(cachedStr), &list); err == nil {
				return list, nil
			}
		}
	}

	list, err := s.store.ListUserQuestions(ctx, userID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list questions", map[string]any{
			"method":    "ListQuestions",
			"userId":    userID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, err
	}
	if data, err := json.Marshal(list); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to marshal questions", map[string]any{
			"method":    "ListQuestions",
			"errorType": "MARSHAL_ERROR",
		}, "SERVICE", err)
	} else if err := s.cache.Set(ctx, cacheKey, data, s.opts.ListCacheTTL); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to cache questions", map[string]any{
			"method":    "ListQuestions",
			"cacheKey":  cacheKey,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
	return list, nil
}

func (s *UpsolveService) invalidateList(ctx context.Context, traceID, userID string) {
	if err := s.cache.Delete(ctx, cache.UserQuestionsKey(userID)); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache", map[string]any{
			"userId":    userID,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
}

func (s *UpsolveService) publish(traceID, subject string, v any) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(subject, data); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to publish event", map[string]any{
			"subject":   subject,
			"errorType": "NATS_ERROR",
		}, "SERVICE", err)
	}
}
