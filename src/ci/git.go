package ci

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// fromGit reconstructs a trigger context from the local repository. Used
// for dev runs outside any CI platform; the event is always "local" so the
// push gate stays closed unless forced.
func fromGit(rootDir string) (*Context, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", rootDir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	c := &Context{
		Event:    EventLocal,
		SHA:      head.Hash().String(),
		Platform: "local",
	}
	c.ShortSHA = shorten(c.SHA)

	if head.Name().IsBranch() {
		c.Branch = head.Name().Short()
		c.Ref = string(head.Name())
	} else {
		// Detached HEAD
		c.Ref = string(plumbing.HEAD)
	}

	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		c.Repository = repoFromRemote(remote.Config().URLs[0])
	}

	return c, nil
}

// repoFromRemote extracts "owner/name" from an origin remote URL.
// Handles SSH (git@host:owner/name.git) and HTTPS (https://host/owner/name).
func repoFromRemote(remote string) string {
	path := remote

	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
		if idx := strings.IndexByte(path, '/'); idx >= 0 {
			path = path[idx+1:]
		}
	} else if at := strings.IndexByte(path, '@'); at >= 0 {
		if colon := strings.IndexByte(path[at:], ':'); colon >= 0 {
			path = path[at+colon+1:]
		}
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	// Keep only the last two segments (owner/name) for deep group paths.
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	return path
}
