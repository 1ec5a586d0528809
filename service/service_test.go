package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"upsolve/cache"
	"upsolve/codeforces"
	"upsolve/model"
	"upsolve/natsclient"
	"upsolve/ratelimit"
	"upsolve/repository"
	"upsolve/scraper"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore mirrors the repository's create-if-absent semantics in memory.
type memStore struct {
	mu            sync.Mutex
	users         map[string]model.User
	questions     map[string]model.Question
	userQuestions map[string]model.UserQuestion
	saveErr       error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]model.User{},
		questions:     map[string]model.Question{},
		userQuestions: map[string]model.UserQuestion{},
	}
}

func uqKey(userID, questionID string) string { return userID + "|" + questionID }

func (m *memStore) UpsertUser(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		if u.Handle != "" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpsertQuestion(ctx context.Context, q model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; !ok {
		m.questions[q.ID] = q
	}
	return nil
}

func (m *memStore) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (m *memStore) SaveStatement(ctx context.Context, id, statement string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	q, ok := m.questions[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.ProblemStatement = statement
	m.questions[id] = q
	return nil
}

func (m *memStore) UpsertUserQuestion(ctx context.Context, uq model.UserQuestion) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := uqKey(uq.UserID, uq.QuestionID)
	if _, ok := m.userQuestions[k]; ok {
		return false, nil
	}
	uq.Question = nil
	m.userQuestions[k] = uq
	return true, nil
}

func (m *memStore) CreateUserQuestion(ctx context.Context, uq model.UserQuestion) error {
	created, _ := m.UpsertUserQuestion(ctx, uq)
	if !created {
		return repository.ErrConflict
	}
	return nil
}

func (m *memStore) GetUserQuestion(ctx context.Context, userID, questionID string) (*model.UserQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uq, ok := m.userQuestions[uqKey(userID, questionID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &uq, nil
}

func (m *memStore) ListUserQuestions(ctx context.Context, userID string) ([]model.UserQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UserQuestion{}
	for _, uq := range m.userQuestions {
		if uq.UserID == userID {
			out = append(out, uq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memStore) ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := uqKey(userID, questionID)
	uq, ok := m.userQuestions[k]
	if !ok {
		return false, repository.ErrNotFound
	}
	uq.Bookmarked = !uq.Bookmarked
	m.userQuestions[k] = uq
	return uq.Bookmarked, nil
}

func (m *memStore) DeleteUserQuestion(ctx context.Context, userID, questionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := uqKey(userID, questionID)
	_, ok := m.userQuestions[k]
	delete(m.userQuestions, k)
	return ok, nil
}

type fakeResolver struct {
	byHandle map[string][]model.UpsolveCandidate
	err      error
}

func (f *fakeResolver) ResolveUpsolveSet(ctx context.Context, handle string) ([]model.UpsolveCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byHandle[handle], nil
}

type fakeExtractor struct {
	calls int
	urls  []string
	st    *model.ScrapedProblemStatement
	err   error
}

func (f *fakeExtractor) ExtractProblem(ctx context.Context, url string) (*model.ScrapedProblemStatement, error) {
	f.calls++
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.st, nil
}

type fakeCF struct {
	subs     []codeforces.Submission
	problems map[string][]codeforces.Problem
}

func (f *fakeCF) UserStatus(ctx context.Context, handle string) ([]codeforces.Submission, error) {
	return f.subs, nil
}

func (f *fakeCF) ContestProblems(ctx context.Context, contestID string) ([]codeforces.Problem, error) {
	ps, ok := f.problems[contestID]
	if !ok {
		return nil, &codeforces.UpstreamAPIError{Method: "contest.standings", ContestID: contestID, Status: "FAILED"}
	}
	return ps, nil
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

type fixture struct {
	svc       *UpsolveService
	store     *memStore
	resolver  *fakeResolver
	extractor *fakeExtractor
	cf        *fakeCF
	pub       *fakePublisher
	cache     *cache.MemoryCache
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		resolver:  &fakeResolver{byHandle: map[string][]model.UpsolveCandidate{}},
		extractor: &fakeExtractor{st: sampleStatement()},
		cf:        &fakeCF{problems: map[string][]codeforces.Problem{}},
		pub:       &fakePublisher{},
		cache:     cache.NewMemoryCache(),
	}
	f.svc = NewService(f.store, f.resolver, f.extractor, f.cf,
		ratelimit.New(ratelimit.Config{MaxConcurrent: 1}), f.cache, f.pub, nil,
		Options{BaseURL: "https://codeforces.com"})
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func sampleStatement() *model.ScrapedProblemStatement {
	return &model.ScrapedProblemStatement{
		Title:           model.Prose("A. Watermelon"),
		TimeLimit:       "1 second",
		MemoryLimit:     "64 megabytes",
		Statement:       model.Prose("Weight $$$w$$$."),
		InputStatement:  model.Prose("One integer."),
		OutputStatement: model.Prose("YES or NO."),
		Examples:        model.Examples("input\n8\noutput\nYES"),
	}
}

func candidate(contestID, index string) model.UpsolveCandidate {
	return model.UpsolveCandidate{
		ProblemRef: model.ProblemRef{
			ContestID: contestID,
			Index:     index,
			Name:      "P" + index,
			Tags:      []string{"greedy"},
			Link:      codeforces.ProblemLink("https://codeforces.com", contestID, index),
		},
		Verdict:   model.VerdictUnattempted,
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveForUserIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RegisterUser(ctx, "u1", "tourist"))
	f.resolver.byHandle["tourist"] = []model.UpsolveCandidate{candidate("100", "D"), candidate("100", "B")}

	res, err := f.svc.ResolveForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 2, res.Created)

	on, err := f.svc.ToggleBookmark(ctx, "u1", "100_D")
	require.NoError(t, err)
	assert.True(t, on)

	res, err = f.svc.ResolveForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	list, err := f.svc.ListQuestions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "100_B", list[0].QuestionID)
	assert.True(t, list[1].Bookmarked, "re-resolving must not reset the bookmark")

	require.Len(t, f.pub.subjects, 2)
	assert.Equal(t, natsclient.SubjectResolved, f.pub.subjects[0])
	var ev ResolveResult
	require.NoError(t, json.Unmarshal(f.pub.payloads[0], &ev))
	assert.Equal(t, "tourist", ev.Handle)
}

func TestResolveForUserErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ResolveForUser(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ResolveForUser(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.store.UpsertUser(ctx, model.User{ID: "nohandle"}))
	_, err = f.svc.ResolveForUser(ctx, "nohandle")
	assert.ErrorIs(t, err, scraper.ErrInvalidHandle)

	require.NoError(t, f.svc.RegisterUser(ctx, "u1", "h"))
	f.resolver.err = fmt.Errorf("history: %w", scraper.ErrScrapeStructure)
	_, err = f.svc.ResolveForUser(ctx, "u1")
	assert.ErrorIs(t, err, scraper.ErrScrapeStructure)
	assert.Empty(t, f.store.userQuestions)
}

func TestRegisterUserValidates(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.svc.RegisterUser(context.Background(), "u1", "  "), ErrInvalidInput)
}

func TestResyncAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RegisterUser(ctx, "u1", "a"))
	require.NoError(t, f.svc.RegisterUser(ctx, "u2", "b"))
	f.resolver.byHandle["a"] = []model.UpsolveCandidate{candidate("1", "A")}
	f.resolver.byHandle["b"] = []model.UpsolveCandidate{candidate("2", "C")}

	require.NoError(t, f.svc.ResyncAll(ctx))
	assert.Len(t, f.store.userQuestions, 2)

	f.resolver.err = scraper.ErrConfiguration
	assert.ErrorIs(t, f.svc.ResyncAll(ctx), scraper.ErrConfiguration)

	f.resolver.err = scraper.ErrScrapeTimeout
	assert.NoError(t, f.svc.ResyncAll(ctx))
}

func TestGetStatementScrapesOnceThenServesFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	st, err := f.svc.GetStatement(ctx, "4_A", false)
	require.NoError(t, err)
	assert.Equal(t, "A. Watermelon", st.Title.Raw)
	assert.Equal(t, []string{"https://codeforces.com/problemset/problem/4/A"}, f.extractor.urls)

	q, err := f.store.GetQuestion(ctx, "4_A")
	require.NoError(t, err)
	assert.Contains(t, q.ProblemStatement, `"titleRaw":"A. Watermelon"`)

	_, err = f.svc.GetStatement(ctx, "4_A", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.extractor.calls)

	// Drop the cache: the stored copy is used without scraping.
	require.NoError(t, f.cache.Delete(ctx, cache.StatementKey("4_A")))
	st, err = f.svc.GetStatement(ctx, "4_A", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.extractor.calls)
	assert.Equal(t, "input\n8\noutput\nYES", st.Examples.Raw)

	_, err = f.svc.GetStatement(ctx, "4_A", true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.extractor.calls)
}

func TestGetStatementUsesStoredLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.UpsertQuestion(ctx, model.Question{ID: "1_B", Link: "https://codeforces.com/contest/1/problem/B"}))
	_, err := f.svc.GetStatement(ctx, "1_B", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://codeforces.com/contest/1/problem/B"}, f.extractor.urls)
}

func TestGetStatementNeverStoresFailures(t *testing.T) {
	for _, scrapeErr := range []error{scraper.ErrScrapeTimeout, scraper.ErrScrapeStructure, errors.New("eval")} {
		f := newFixture()
		ctx := context.Background()
		require.NoError(t, f.store.UpsertQuestion(ctx, model.Question{ID: "9_C"}))
		f.extractor.err = scrapeErr

		_, err := f.svc.GetStatement(ctx, "9_C", false)
		assert.ErrorIs(t, err, scrapeErr)

		q, _ := f.store.GetQuestion(ctx, "9_C")
		assert.Empty(t, q.ProblemStatement)
		v, _ := f.cache.Get(ctx, cache.StatementKey("9_C"))
		assert.Nil(t, v)
	}
}

func TestGetStatementRejectsBadKey(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetStatement(context.Background(), "4-A", false)
	assert.ErrorIs(t, err, codeforces.ErrInvalidKey)
	assert.Equal(t, 0, f.extractor.calls)
}

func TestImportFaultySubmissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RegisterUser(ctx, "u1", "h"))
	_, err := f.store.UpsertUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "5_A", Verdict: model.VerdictWrongAnswer})
	require.NoError(t, err)

	f.cf.subs = []codeforces.Submission{
		{CreationTimeSeconds: 300, Verdict: "OK", Problem: codeforces.Problem{ContestID: 5, Index: "A", Name: "A"}},
		{CreationTimeSeconds: 100, Verdict: "WRONG_ANSWER", Problem: codeforces.Problem{ContestID: 5, Index: "A", Name: "A"}},
		{CreationTimeSeconds: 250, Verdict: "TIME_LIMIT_EXCEEDED", Problem: codeforces.Problem{ContestID: 5, Index: "B", Name: "B", Rating: 1400}},
		{CreationTimeSeconds: 200, Verdict: "OK", Problem: codeforces.Problem{ContestID: 5, Index: "B", Name: "B"}},
		{CreationTimeSeconds: 400, Verdict: "TESTING", Problem: codeforces.Problem{ContestID: 6, Index: "A"}},
		{CreationTimeSeconds: 50, Verdict: "WRONG_ANSWER", Problem: codeforces.Problem{Index: "A"}},
	}

	res, err := f.svc.ImportFaultySubmissions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Removed)

	uq, err := f.store.GetUserQuestion(ctx, "u1", "5_B")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTimeLimitExceeded, uq.Verdict)
	q, err := f.store.GetQuestion(ctx, "5_B")
	require.NoError(t, err)
	require.NotNil(t, q.Rating)
	assert.Equal(t, 1400, *q.Rating)

	_, err = f.store.GetUserQuestion(ctx, "u1", "5_A")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.GetUserQuestion(ctx, "u1", "6_A")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAddQuestionByURL(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.cf.problems["1520"] = []codeforces.Problem{
		{ContestID: 1520, Index: "A", Name: "Do Not Be Distracted!", Rating: 800, Tags: []string{"brute force"}},
		{ContestID: 1520, Index: "B", Name: "Ordinary Numbers"},
	}

	uq, err := f.svc.AddQuestionByURL(ctx, "u1", "https://codeforces.com/contest/1520/problem/a")
	require.NoError(t, err)
	assert.Equal(t, "1520_A", uq.QuestionID)
	assert.True(t, uq.Bookmarked)
	assert.Equal(t, model.VerdictUnattempted, uq.Verdict)
	require.NotNil(t, uq.Question)
	assert.Equal(t, "https://codeforces.com/problemset/problem/1520/A", uq.Question.Link)

	_, err = f.svc.AddQuestionByURL(ctx, "u1", "https://codeforces.com/problemset/problem/1520/A")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, http.StatusConflict, StatusFromError(err))

	_, err = f.svc.AddQuestionByURL(ctx, "u1", "https://codeforces.com/problemset/problem/1520/Z")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.AddQuestionByURL(ctx, "u1", "https://codeforces.com/blog/entry/1")
	assert.ErrorIs(t, err, scraper.ErrInvalidURL)

	_, err = f.svc.AddQuestionByURL(ctx, "u1", "https://codeforces.com/problemset/problem/999/A")
	var apiErr *codeforces.UpstreamAPIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestBookmarkRemoveAndListCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.store.UpsertUserQuestion(ctx, model.UserQuestion{UserID: "u1", QuestionID: "3_A"})
	require.NoError(t, err)

	list, err := f.svc.ListQuestions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Bookmarked)

	_, err = f.svc.ToggleBookmark(ctx, "u1", "3_A")
	require.NoError(t, err)
	list, err = f.svc.ListQuestions(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, list[0].Bookmarked, "mutations invalidate the cached list")

	_, err = f.svc.ToggleBookmark(ctx, "u1", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.svc.RemoveQuestion(ctx, "u1", "3_A"))
	assert.ErrorIs(t, f.svc.RemoveQuestion(ctx, "u1", "3_A"), repository.ErrNotFound)
	list, err = f.svc.ListQuestions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStartCronJob(t *testing.T) {
	f := newFixture()
	c, err := f.svc.StartCronJob()
	require.NoError(t, err)
	<-c.Stop().Done()

	f.svc.opts.ResyncSchedule = "every now and then"
	_, err = f.svc.StartCronJob()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatusFromError(t *testing.T) {
	cases := map[error]int{
		nil:                            http.StatusOK,
		ErrInvalidInput:                http.StatusBadRequest,
		scraper.ErrInvalidURL:          http.StatusBadRequest,
		codeforces.ErrInvalidKey:       http.StatusBadRequest,
		repository.ErrNotFound:         http.StatusNotFound,
		repository.ErrConflict:         http.StatusConflict,
		scraper.ErrScrapeTimeout:       http.StatusGatewayTimeout,
		scraper.ErrScrapeStructure:     http.StatusBadGateway,
		scraper.ErrConfiguration:       http.StatusServiceUnavailable,
		errors.New("boom"):             http.StatusInternalServerError,
		&codeforces.UpstreamAPIError{}: http.StatusBadGateway,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFromError(err), fmt.Sprint(err))
	}
}

func TestWorkerHandlers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RegisterUser(ctx, "u1", "h"))
	f.resolver.byHandle["h"] = []model.UpsolveCandidate{candidate("1", "A")}
	w := NewWorker(f.svc, nil, nil)

	resp := w.handleResolve(ctx, []byte(`{"userId":"u1"}`))
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = w.handleResolve(ctx, []byte(`not json`))
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.ErrorType)

	resp = w.handleExtract(ctx, []byte(`{"questionId":"1_A"}`))
	require.True(t, resp.Success)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded struct {
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "<p>A. Watermelon</p>", decoded.Payload["titleFormatted"])

	f.extractor.err = scraper.ErrScrapeTimeout
	resp = w.handleExtract(ctx, []byte(`{"questionId":"2_A"}`))
	assert.Equal(t, http.StatusGatewayTimeout, resp.Status)
	assert.Equal(t, "SCRAPE_TIMEOUT", resp.Error.ErrorType)
}
