package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *git.Repository, *git.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return dir, repo, wt
}

func commitFile(t *testing.T, dir string, wt *git.Worktree, name, content string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

func TestDetectVersion_NoTags(t *testing.T) {
	dir, _, wt := initRepo(t)
	commitFile(t, dir, wt, "a.txt", "a")

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}

	if !strings.HasPrefix(v.Version, "0.0.0-dev.") {
		t.Errorf("version = %q, want a 0.0.0 dev version", v.Version)
	}
	if v.IsRelease {
		t.Error("untagged HEAD is not a release")
	}
	if v.Major != "0" || v.Minor != "0" || v.Patch != "0" {
		t.Errorf("components = %s.%s.%s", v.Major, v.Minor, v.Patch)
	}
	if v.Branch == "" {
		t.Error("branch should resolve from HEAD")
	}
}

func TestDetectVersion_TaggedHead(t *testing.T) {
	dir, repo, wt := initRepo(t)
	hash := commitFile(t, dir, wt, "a.txt", "a")
	if _, err := repo.CreateTag("v1.2.0", hash, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}

	if v.Version != "1.2.0" {
		t.Errorf("version = %q, want 1.2.0", v.Version)
	}
	if !v.IsRelease {
		t.Error("HEAD at the tag should be a release")
	}
	if v.Major != "1" || v.Minor != "2" || v.Patch != "0" {
		t.Errorf("components = %s.%s.%s", v.Major, v.Minor, v.Patch)
	}
	if v.SHA != hash.String() {
		t.Errorf("sha = %q, want %q", v.SHA, hash.String())
	}
}

func TestDetectVersion_CommitsAfterTag(t *testing.T) {
	dir, repo, wt := initRepo(t)
	hash := commitFile(t, dir, wt, "a.txt", "a")
	if _, err := repo.CreateTag("v1.2.0", hash, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}
	commitFile(t, dir, wt, "b.txt", "b")

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}

	if v.IsRelease {
		t.Error("HEAD past the tag is not a release")
	}
	if !strings.HasPrefix(v.Version, "1.2.0-dev.") {
		t.Errorf("version = %q, want a 1.2.0 dev version", v.Version)
	}
}

func TestDetectVersion_HighestTagWins(t *testing.T) {
	dir, repo, wt := initRepo(t)
	first := commitFile(t, dir, wt, "a.txt", "a")
	if _, err := repo.CreateTag("v1.9.0", first, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}
	second := commitFile(t, dir, wt, "b.txt", "b")
	// Semver ordering, not lexical: 1.10.0 > 1.9.0.
	if _, err := repo.CreateTag("v1.10.0", second, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}
	if v.Version != "1.10.0" || !v.IsRelease {
		t.Errorf("version = %q (release=%v), want 1.10.0 release", v.Version, v.IsRelease)
	}
}

func TestDetectVersion_AnnotatedTag(t *testing.T) {
	dir, repo, wt := initRepo(t)
	hash := commitFile(t, dir, wt, "a.txt", "a")
	_, err := repo.CreateTag("v2.0.0", hash, &git.CreateTagOptions{
		Message: "release 2.0.0",
		Tagger:  &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("annotated tag: %v", err)
	}

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}
	if v.Version != "2.0.0" || !v.IsRelease {
		t.Errorf("version = %q (release=%v), want 2.0.0 release", v.Version, v.IsRelease)
	}
}

func TestDetectVersion_NotARepo(t *testing.T) {
	if _, err := DetectVersion(t.TempDir()); err == nil {
		t.Fatal("expected an error outside a git repository")
	}
}

func TestDetectVersion_SkipsNonSemverTags(t *testing.T) {
	dir, repo, wt := initRepo(t)
	hash := commitFile(t, dir, wt, "a.txt", "a")
	if _, err := repo.CreateTag("nightly", hash, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}

	v, err := DetectVersion(dir)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}
	if !strings.HasPrefix(v.Version, "0.0.0-dev.") {
		t.Errorf("version = %q, non-semver tags must not count", v.Version)
	}
}
