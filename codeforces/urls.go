package codeforces

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const DefaultBaseURL = "https://codeforces.com"

var (
	ErrInvalidURL = errors.New("invalid problem url")
	ErrInvalidKey = errors.New("invalid problem key")
)

var (
	contestIDPattern = regexp.MustCompile(`^[0-9]+$`)
	indexPattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,3}$`)
)

// Key joins a contest id and problem index into the storage key. The
// underscore is reserved as the separator.
func Key(contestID, index string) string {
	return contestID + "_" + index
}

// ParseKey splits a storage key back into contest id and index.
func ParseKey(key string) (contestID, index string, err error) {
	parts := strings.Split(key, "_")
	if len(parts) != 2 || !contestIDPattern.MatchString(parts[0]) || !indexPattern.MatchString(parts[1]) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return parts[0], parts[1], nil
}

// ProblemLink is the canonical problemset URL for a problem.
func ProblemLink(baseURL, contestID, index string) string {
	return fmt.Sprintf("%s/problemset/problem/%s/%s", strings.TrimRight(baseURL, "/"), contestID, index)
}

// ContestHistoryURL lists the contests a handle took part in.
func ContestHistoryURL(baseURL, handle string) string {
	return fmt.Sprintf("%s/contests/with/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(handle))
}

// ParseProblemURL accepts .../problemset/problem/{contestId}/{index} and
// .../contest/{contestId}/.../problem/{index}.
func ParseProblemURL(raw string) (contestID, index string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(segs)

	switch {
	case n >= 4 && segs[n-4] == "problemset" && segs[n-3] == "problem":
		contestID, index = segs[n-2], segs[n-1]
	case n >= 4 && segs[n-2] == "problem":
		pos := indexOf(segs[:n-2], "contest")
		if pos < 0 || pos+1 >= n-2 {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
		}
		contestID, index = segs[pos+1], segs[n-1]
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	if !contestIDPattern.MatchString(contestID) || !indexPattern.MatchString(index) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return contestID, strings.ToUpper(index), nil
}

// ContestIDFromStandingsLink pulls the contest id out of a contest-history
// row link, which has the form .../contest/{id}/standings/participant/{pid}.
func ContestIDFromStandingsLink(link string) (string, error) {
	segs := strings.Split(strings.TrimRight(link, "/"), "/")
	if len(segs) < 4 {
		return "", fmt.Errorf("unexpected contest link %q", link)
	}
	id := segs[len(segs)-4]
	if !contestIDPattern.MatchString(id) {
		return "", fmt.Errorf("unexpected contest link %q", link)
	}
	return id, nil
}

func indexOf(segs []string, want string) int {
	for i, s := range segs {
		if s == want {
			return i
		}
	}
	return -1
}
