package repo

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Host identifies the forge a remote belongs to.
type Host int

const (
	HostUnknown Host = iota
	HostGitHub
	HostGitLab
)

func (h Host) String() string {
	switch h {
	case HostGitHub:
		return "github"
	case HostGitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}

// CIState is the coarse CI status attached to a branch.
type CIState string

const (
	CIPending CIState = "pending"
	CISuccess CIState = "success"
	CIFailure CIState = "failure"
	CINoCI    CIState = "noci"
)

// CIStatus is the provider-agnostic result of a CI fetch.
type CIStatus struct {
	State CIState
	URL   string
}

var remoteHostPattern = regexp.MustCompile(`(?:git@|https?://|ssh://)(?:[^@/]+@)?([^/:]+)`)

// DetectHost classifies the primary remote's hostname, caching the
// result for the lifetime of the Repository.
func (r *gitRepository) DetectHost(ctx context.Context) Host {
	host, _ := r.cache.host.Get("host", func() (Host, error) {
		out, err := r.run(ctx, "remote", "get-url", "origin")
		if err != nil {
			return HostUnknown, nil
		}
		return classifyRemoteURL(out), nil
	})
	return host
}

func classifyRemoteURL(url string) Host {
	matches := remoteHostPattern.FindStringSubmatch(strings.TrimSpace(url))
	if len(matches) < 2 {
		return HostUnknown
	}
	hostname := strings.ToLower(matches[1])
	switch {
	case strings.Contains(hostname, "gitlab"):
		return HostGitLab
	case strings.Contains(hostname, "github"):
		return HostGitHub
	default:
		return HostUnknown
	}
}

// breakerRegistry hands out one circuit breaker per host, so a GitHub
// outage doesn't also trip GitLab fetches in a mixed-remote checkout.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[Host]*gobreaker.CircuitBreaker
}

func newBreakerRegistry() *breakerRegistry {
	return &breakerRegistry{breakers: make(map[Host]*gobreaker.CircuitBreaker)}
}

func (reg *breakerRegistry) get(host Host) *gobreaker.CircuitBreaker {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if cb, ok := reg.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host.String(),
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	reg.breakers[host] = cb
	return cb
}

var hostBreakers = newBreakerRegistry()

// FetchCIStatus retrieves the CI result for a branch/PR, dispatching to
// the gh or glab CLI depending on DetectHost and wrapping the call in
// an exponential backoff retry behind a per-host circuit breaker, so a
// flaky or unauthenticated CLI degrades this one task instead of
// stalling the run.
func (r *gitRepository) FetchCIStatus(ctx context.Context, branch string) (CIStatus, error) {
	host := r.DetectHost(ctx)
	cb := hostBreakers.get(host)

	var status CIStatus
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		result, err := cb.Execute(func() (interface{}, error) {
			switch host {
			case HostGitHub:
				return r.fetchGitHubCI(ctx, branch)
			case HostGitLab:
				return r.fetchGitLabCI(ctx, branch)
			default:
				return CIStatus{State: CINoCI}, nil
			}
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		status = result.(CIStatus)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	return status, err
}

// PRInfo is the forge-side pull/merge request summary for a branch.
type PRInfo struct {
	Number int
	Title  string
	State  string
	URL    string
	Draft  bool
}

// FetchPRStatus returns the PR that `gh pr view` reports for a branch, in
// whatever state it is (open, merged or closed), or nil when the branch
// has none (or the forge has no PR-view CLI wired here).
func (r *gitRepository) FetchPRStatus(ctx context.Context, branch string) (*PRInfo, error) {
	if r.DetectHost(ctx) != HostGitHub {
		return nil, nil
	}
	out, err := r.runner.Run(ctx, r.root, "gh", "pr", "view", branch, "--json", "number,title,state,url,isDraft")
	if err != nil {
		return nil, nil // no PR for this branch: not an error
	}
	var result struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		State   string `json:"state"`
		URL     string `json:"url"`
		IsDraft bool   `json:"isDraft"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return nil, &ParseError{Message: "could not parse gh pr view output: " + err.Error()}
	}
	if result.Number == 0 {
		return nil, nil
	}
	return &PRInfo{Number: result.Number, Title: result.Title, State: result.State, URL: result.URL, Draft: result.IsDraft}, nil
}

func (r *gitRepository) fetchGitHubCI(ctx context.Context, branch string) (CIStatus, error) {
	pr, err := r.FetchPRStatus(ctx, branch)
	if err != nil || pr == nil {
		return CIStatus{State: CINoCI}, nil
	}

	out, err := r.runner.Run(ctx, r.root, "gh", "pr", "checks", strconv.Itoa(pr.Number), "--json", "name,bucket,link")
	if err != nil {
		return CIStatus{}, err
	}

	var checks []struct {
		Bucket string `json:"bucket"`
		Link   string `json:"link"`
	}
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		return CIStatus{}, &ParseError{Message: "could not parse gh pr checks output: " + err.Error()}
	}
	if len(checks) == 0 {
		return CIStatus{State: CINoCI}, nil
	}

	url := checks[0].Link
	state := CISuccess
	for _, c := range checks {
		switch strings.ToLower(c.Bucket) {
		case "fail", "cancel":
			return CIStatus{State: CIFailure, URL: c.Link}, nil
		case "pending":
			state = CIPending
		}
	}
	return CIStatus{State: state, URL: url}, nil
}

func (r *gitRepository) fetchGitLabCI(ctx context.Context, branch string) (CIStatus, error) {
	out, err := r.runner.Run(ctx, r.root, "glab", "ci", "status", "--branch", branch, "--output", "json")
	if err != nil {
		return CIStatus{State: CINoCI}, nil
	}

	var pipeline struct {
		Status string `json:"status"`
		WebURL string `json:"web_url"`
	}
	if err := json.Unmarshal([]byte(out), &pipeline); err != nil {
		return CIStatus{}, &ParseError{Message: "could not parse glab ci status output: " + err.Error()}
	}
	return CIStatus{State: gitlabStatusToState(pipeline.Status), URL: pipeline.WebURL}, nil
}

func gitlabStatusToState(status string) CIState {
	switch strings.ToLower(status) {
	case "success":
		return CISuccess
	case "failed", "canceled", "cancelled":
		return CIFailure
	case "running", "pending", "created":
		return CIPending
	default:
		return CINoCI
	}
}

