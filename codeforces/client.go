// Package codeforces is a small client for the Codeforces JSON API plus the
// URL and key conventions the rest of the service relies on.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UpstreamAPIError reports a non-OK answer from the API.
type UpstreamAPIError struct {
	Method     string
	ContestID  string
	HTTPStatus int
	Status     string
	Comment    string
}

func (e *UpstreamAPIError) Error() string {
	msg := fmt.Sprintf("codeforces %s returned %s (http %d)", e.Method, e.Status, e.HTTPStatus)
	if e.ContestID != "" {
		msg += " for contest " + e.ContestID
	}
	if e.Comment != "" {
		msg += ": " + e.Comment
	}
	return msg
}

type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
	Points    float64  `json:"points,omitempty"`
}

type ProblemResult struct {
	Points                float64 `json:"points"`
	RejectedAttemptCount  int     `json:"rejectedAttemptCount"`
	BestSubmissionTimeSec int64   `json:"bestSubmissionTimeSeconds,omitempty"`
}

type Party struct {
	ContestID       int    `json:"contestId"`
	ParticipantType string `json:"participantType"`
	StartTimeSec    int64  `json:"startTimeSeconds,omitempty"`
}

type RanklistRow struct {
	Party          Party           `json:"party"`
	Rank           int             `json:"rank"`
	Points         float64         `json:"points"`
	ProblemResults []ProblemResult `json:"problemResults"`
}

type Contest struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Phase            string `json:"phase"`
	StartTimeSeconds int64  `json:"startTimeSeconds,omitempty"`
}

type Standings struct {
	Contest  Contest       `json:"contest"`
	Problems []Problem     `json:"problems"`
	Rows     []RanklistRow `json:"rows"`
}

type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

// CreatedAt converts the submission timestamp.
func (s Submission) CreatedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// Client talks to the public API. It is safe for concurrent use; callers are
// expected to route calls through a rate limiter.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL is the site root links are built from.
func (c *Client) BaseURL() string { return c.baseURL }

// ContestStandings fetches the standings of one contest restricted to handle.
func (c *Client) ContestStandings(ctx context.Context, contestID, handle string, showUnofficial bool) (*Standings, error) {
	q := url.Values{}
	q.Set("contestId", contestID)
	q.Set("handles", handle)
	q.Set("showUnofficial", strconv.FormatBool(showUnofficial))
	var out Standings
	if err := c.call(ctx, "contest.standings", contestID, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContestProblems returns the problem list of a contest.
func (c *Client) ContestProblems(ctx context.Context, contestID string) ([]Problem, error) {
	q := url.Values{}
	q.Set("contestId", contestID)
	q.Set("count", "1")
	var out Standings
	if err := c.call(ctx, "contest.standings", contestID, q, &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

// UserStatus returns every submission of handle, newest first.
func (c *Client) UserStatus(ctx context.Context, handle string) ([]Submission, error) {
	q := url.Values{}
	q.Set("handle", handle)
	var out []Submission
	if err := c.call(ctx, "user.status", "", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, contestID string, q url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/api/%s?%s", c.baseURL, method, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &UpstreamAPIError{Method: method, ContestID: contestID, HTTPStatus: resp.StatusCode, Status: "UNPARSEABLE", Comment: err.Error()}
	}
	if env.Status != "OK" {
		return &UpstreamAPIError{Method: method, ContestID: contestID, HTTPStatus: resp.StatusCode, Status: env.Status, Comment: env.Comment}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
