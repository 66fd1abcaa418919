// Package registry provides read access to container registries for
// post-push verification, plus credential resolution for registry login.
// Every provider implements the Registry interface so verification works
// identically regardless of where images are hosted.
package registry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Registry is the interface every container registry provider implements.
type Registry interface {
	// Provider returns the registry vendor name.
	Provider() string

	// ListTags returns all tags for a repository.
	ListTags(ctx context.Context, repo string) ([]TagInfo, error)
}

// TagInfo describes a single tag in a container registry.
type TagInfo struct {
	Name      string
	Digest    string
	CreatedAt time.Time
}

// DetectProvider guesses the registry vendor from its host.
func DetectProvider(registryURL string) string {
	host := strings.ToLower(registryURL)
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if strings.HasPrefix(host, "ghcr.io") {
		return "github"
	}
	return "generic"
}

// New creates a registry client for the given provider. Credentials are
// resolved from environment variables via the prefix (see Credentials).
func New(provider, registryURL, credentialPrefix string) (Registry, error) {
	if provider == "" {
		provider = DetectProvider(registryURL)
	}
	user, token := Credentials(credentialPrefix)

	switch provider {
	case "github", "ghcr":
		return NewGHCR(user, token), nil
	default:
		return nil, fmt.Errorf("registry: unsupported provider %q (valid: github)", provider)
	}
}

// Credentials reads USER and TOKEN from env vars using the configured
// prefix:
//
//	prefix "GHCR" → GHCR_USER / GHCR_TOKEN
//
// An empty prefix (or unset vars) falls back to the ambient CI identity:
// GITHUB_ACTOR and GITHUB_TOKEN.
func Credentials(prefix string) (user, token string) {
	if prefix != "" {
		user = os.Getenv(prefix + "_USER")
		token = os.Getenv(prefix + "_TOKEN")
		if token == "" {
			token = os.Getenv(prefix + "_PASS")
		}
	}
	if user == "" {
		user = os.Getenv("GITHUB_ACTOR")
	}
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	return user, token
}

// VerifyTags checks that every expected tag is visible in the registry.
// Returns the tags that are missing.
func VerifyTags(ctx context.Context, reg Registry, repo string, expected []string) ([]string, error) {
	tags, err := reg.ListTags(ctx, repo)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t.Name] = true
	}

	var missing []string
	for _, t := range expected {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
