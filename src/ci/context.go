// Package ci resolves the trigger context: which event started the
// pipeline, on which branch and commit, for which repository, and as whom.
// The context is read-only input supplied by the CI platform; outside CI it
// is reconstructed from the local git repository so dev runs behave like a
// branch push.
package ci

import (
	"fmt"
	"os"
	"strings"
)

// Trigger event names. CI platforms report more event types; the pipeline
// only distinguishes the ones the push gate can act on.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
	EventLocal       = "local"
)

// Context captures the trigger state for one pipeline run.
type Context struct {
	Event         string // push, pull_request, local, or the platform's raw name
	Ref           string // full ref, e.g. "refs/heads/main" (may be empty)
	Branch        string // branch name, e.g. "main"
	SHA           string // full commit sha
	ShortSHA      string // first 8 chars of SHA
	Repository    string // "owner/name"
	Actor         string // identity that triggered the run
	DefaultBranch string // platform default branch, when known
	Platform      string // "github", "gitlab", or "local"
}

// Load resolves the trigger context. Sources in priority order: GitHub
// Actions env, GitLab CI env, the local git repository at rootDir.
func Load(rootDir string) (*Context, error) {
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return fromGitHub(), nil
	}
	if os.Getenv("GITLAB_CI") == "true" {
		return fromGitLab(), nil
	}
	ctx, err := fromGit(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving local git context: %w", err)
	}
	return ctx, nil
}

// fromGitHub reads the GitHub Actions trigger environment.
func fromGitHub() *Context {
	c := &Context{
		Event:         os.Getenv("GITHUB_EVENT_NAME"),
		Ref:           os.Getenv("GITHUB_REF"),
		SHA:           os.Getenv("GITHUB_SHA"),
		Repository:    os.Getenv("GITHUB_REPOSITORY"),
		Actor:         os.Getenv("GITHUB_ACTOR"),
		DefaultBranch: os.Getenv("GITHUB_DEFAULT_BRANCH"),
		Platform:      "github",
	}

	// Branch: for pull requests GITHUB_REF_NAME is "<n>/merge", so the
	// source branch lives in GITHUB_HEAD_REF instead.
	if head := os.Getenv("GITHUB_HEAD_REF"); head != "" {
		c.Branch = head
	} else if strings.HasPrefix(c.Ref, "refs/heads/") {
		c.Branch = strings.TrimPrefix(c.Ref, "refs/heads/")
	} else {
		c.Branch = os.Getenv("GITHUB_REF_NAME")
	}

	c.ShortSHA = shorten(c.SHA)
	return c
}

// fromGitLab reads the GitLab CI trigger environment.
func fromGitLab() *Context {
	c := &Context{
		Event:         os.Getenv("CI_PIPELINE_SOURCE"),
		Branch:        os.Getenv("CI_COMMIT_BRANCH"),
		SHA:           os.Getenv("CI_COMMIT_SHA"),
		Repository:    os.Getenv("CI_PROJECT_PATH"),
		Actor:         os.Getenv("GITLAB_USER_LOGIN"),
		DefaultBranch: os.Getenv("CI_DEFAULT_BRANCH"),
		Platform:      "gitlab",
	}

	if c.Branch == "" {
		c.Branch = os.Getenv("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME")
	}
	if c.Branch != "" {
		c.Ref = "refs/heads/" + c.Branch
	}

	// Normalize GitLab event names onto the shared vocabulary.
	switch c.Event {
	case "merge_request_event":
		c.Event = EventPullRequest
	case "":
		c.Event = EventPush
	}

	if short := os.Getenv("CI_COMMIT_SHORT_SHA"); short != "" {
		c.ShortSHA = short
	} else {
		c.ShortSHA = shorten(c.SHA)
	}
	return c
}

// IsPush reports whether the trigger was a branch push.
func (c *Context) IsPush() bool {
	return c.Event == EventPush
}

// Describe returns a one-line human summary of the trigger.
func (c *Context) Describe() string {
	switch c.Event {
	case EventPush:
		return fmt.Sprintf("push to %s", c.Branch)
	case EventPullRequest:
		return fmt.Sprintf("pull request from %s", c.Branch)
	case EventLocal:
		return fmt.Sprintf("local run on %s", c.Branch)
	}
	return fmt.Sprintf("%s on %s", c.Event, c.Branch)
}

func shorten(sha string) string {
	if len(sha) >= 8 {
		return sha[:8]
	}
	return sha
}
