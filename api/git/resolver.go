// Package git looks up commits on git hosting providers.
package git

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ErrRefNotFound is returned when the provider does not know the ref.
var ErrRefNotFound = errors.New("ref not found")

// CommitResolver finds the commit a ref points at.
type CommitResolver interface {
	// HeadCommit returns the SHA of the head commit of ref in the repository at repoURL.
	HeadCommit(ctx context.Context, repoURL, ref string) (string, error)
}

type Config struct {
	GitHubAPIURL string
	GitHubToken  string
	GitLabAPIURL string
	GitLabToken  string
	Timeout      time.Duration
}

type provider interface {
	headCommit(ctx context.Context, repoPath, ref string) (string, error)
}

// Resolver dispatches lookups to the provider hosting the repository.
type Resolver struct {
	providers map[string]provider
	timeout   time.Duration
}

var _ CommitResolver = &Resolver{}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		providers: map[string]provider{
			"github.com": &github{apiURL: strings.TrimSuffix(cfg.GitHubAPIURL, "/"), client: newClient(cfg.GitHubToken)},
			"gitlab.com": &gitlab{apiURL: strings.TrimSuffix(cfg.GitLabAPIURL, "/"), client: newClient(cfg.GitLabToken)},
		},
		timeout: cfg.Timeout,
	}
}

func newClient(token string) *http.Client {
	if token == "" {
		return &http.Client{}
	}
	return oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

func (r *Resolver) HeadCommit(ctx context.Context, repoURL, ref string) (string, error) {
	host, path, err := ParseRepo(repoURL)
	if err != nil {
		return "", err
	}
	p, ok := r.providers[host]
	if !ok {
		return "", fmt.Errorf("unsupported git provider %s", host)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sha, err := p.headCommit(ctx, path, ref)
	if err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().Str("repo", path).Str("ref", ref).Str("sha", sha).Msg("resolved head commit")
	return sha, nil
}

// ParseRepo splits a repository url into the provider host and the
// repository path. Both https and scp-like ssh urls are accepted.
func ParseRepo(repoURL string) (host, path string, err error) {
	raw := strings.TrimSpace(repoURL)
	if at := strings.Index(raw, "@"); at >= 0 && !strings.Contains(raw, "://") {
		// git@github.com:owner/repo.git
		rest := raw[at+1:]
		colon := strings.Index(rest, ":")
		if colon < 0 {
			return "", "", fmt.Errorf("invalid repository url %s", repoURL)
		}
		host, path = rest[:colon], rest[colon+1:]
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", "", fmt.Errorf("invalid repository url %s", repoURL)
		}
		host, path = u.Hostname(), u.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if strings.Count(path, "/") < 1 {
		return "", "", fmt.Errorf("invalid repository url %s", repoURL)
	}
	return strings.ToLower(host), path, nil
}

type github struct {
	apiURL string
	client *http.Client
}

func (g *github) headCommit(ctx context.Context, repoPath, ref string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/commits/%s", g.apiURL, repoPath, url.PathEscape(ref))
	body, err := get(ctx, g.client, endpoint, "application/vnd.github.sha")
	if err != nil {
		return "", fmt.Errorf("github %s@%s: %w", repoPath, ref, err)
	}
	return strings.TrimSpace(string(body)), nil
}

type gitlab struct {
	apiURL string
	client *http.Client
}

func (g *gitlab) headCommit(ctx context.Context, repoPath, ref string) (string, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/repository/commits/%s", g.apiURL, url.PathEscape(repoPath), url.PathEscape(ref))
	body, err := get(ctx, g.client, endpoint, "application/json")
	if err != nil {
		return "", fmt.Errorf("gitlab %s@%s: %w", repoPath, ref, err)
	}
	var commit struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &commit); err != nil {
		return "", fmt.Errorf("gitlab %s@%s: %w", repoPath, ref, err)
	}
	return commit.ID, nil
}

func get(ctx context.Context, client *http.Client, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrRefNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
