// ABOUTME: Git provider resource: repositories, branches and microagents,
// ABOUTME: keyed by (owner, repo) pairs parsed from full-name strings.

package restapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Repo identifies a repository, parsed from an "owner/repo[/subpath]"
// full-name string.
type Repo struct {
	Owner   string
	Name    string
	Subpath string
}

// FullName reassembles the owner/repo form without the subpath.
func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseFullName splits "owner/repo" or "owner/repo/sub/path" into its parts.
func ParseFullName(fullName string) (Repo, error) {
	parts := strings.SplitN(fullName, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository full name %q: want owner/repo", fullName)
	}
	r := Repo{Owner: parts[0], Name: parts[1]}
	if len(parts) == 3 {
		r.Subpath = parts[2]
	}
	return r, nil
}

// Repository is a repository summary from the provider listing.
type Repository struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Provider string `json:"provider"`
	IsPublic bool   `json:"is_public"`
}

// Branch is one branch of a repository.
type Branch struct {
	Name         string `json:"name"`
	CommitSHA    string `json:"commit_sha"`
	Protected    bool   `json:"protected"`
	LastPushDate string `json:"last_push_date"`
}

// Microagent is a repository-scoped knowledge snippet consumed by the agent.
type Microagent struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	CreatedAt string   `json:"created_at"`
	Triggers  []string `json:"triggers"`
}

// ListRepositories returns the repositories visible to the current user.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if err := c.get(ctx, "/api/user/repositories", nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListBranches returns the branches of one repository.
func (c *Client) ListBranches(ctx context.Context, fullName string) ([]Branch, error) {
	repo, err := ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	var branches []Branch
	q := url.Values{"repository": {repo.FullName()}}
	if err := c.get(ctx, "/api/user/repository/branches", q, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// ListMicroagents returns the microagents defined in one repository.
func (c *Client) ListMicroagents(ctx context.Context, fullName string) ([]Microagent, error) {
	repo, err := ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	var agents []Microagent
	path := fmt.Sprintf("/api/user/repository/%s/%s/microagents", repo.Owner, repo.Name)
	if err := c.get(ctx, path, nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}
