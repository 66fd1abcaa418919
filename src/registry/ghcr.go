package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// GHCR implements the Registry interface for GitHub Container Registry
// (ghcr.io) using the GitHub packages REST API. The ambient GITHUB_TOKEN
// issued to a workflow run is sufficient for reading the repository's own
// packages.
type GHCR struct {
	client  httpClient
	apiBase string
}

func NewGHCR(user, token string) *GHCR {
	_ = user // token auth only; user is needed for docker login, not the API
	return &GHCR{
		client: httpClient{
			headers: map[string]string{
				"Authorization":        "Bearer " + token,
				"Accept":               "application/vnd.github+json",
				"X-GitHub-Api-Version": "2022-11-28",
			},
		},
		apiBase: "https://api.github.com",
	}
}

func (g *GHCR) Provider() string { return "github" }

// splitRepo splits "owner/image" into owner and package name.
func splitRepo(repo string) (owner, pkg string) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 {
		return repo, repo
	}
	return parts[0], parts[1]
}

// ListTags returns all tags for "owner/image". GHCR exposes them as package
// versions; each version can carry multiple tags, so one TagInfo is emitted
// per tag. The user endpoint is tried first (personal accounts), then the
// org endpoint.
func (g *GHCR) ListTags(ctx context.Context, repo string) ([]TagInfo, error) {
	owner, pkg := splitRepo(repo)

	var allTags []TagInfo
	page := 1

	for {
		var versions []ghcrVersion

		userURL := fmt.Sprintf("%s/users/%s/packages/container/%s/versions?per_page=100&page=%d",
			g.apiBase, url.PathEscape(owner), url.PathEscape(pkg), page)
		err := g.client.getJSON(ctx, userURL, &versions)
		if err != nil {
			orgURL := fmt.Sprintf("%s/orgs/%s/packages/container/%s/versions?per_page=100&page=%d",
				g.apiBase, url.PathEscape(owner), url.PathEscape(pkg), page)
			if err = g.client.getJSON(ctx, orgURL, &versions); err != nil {
				return nil, fmt.Errorf("ghcr: listing versions for %s: %w", repo, err)
			}
		}

		if len(versions) == 0 {
			break
		}

		for _, v := range versions {
			created, _ := time.Parse(time.RFC3339, v.CreatedAt)
			for _, tag := range v.Metadata.Container.Tags {
				allTags = append(allTags, TagInfo{
					Name:      tag,
					Digest:    v.Name, // version name is the digest
					CreatedAt: created,
				})
			}
		}

		page++
	}

	return allTags, nil
}

type ghcrVersion struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Metadata  struct {
		Container struct {
			Tags []string `json:"tags"`
		} `json:"container"`
	} `json:"metadata"`
}
