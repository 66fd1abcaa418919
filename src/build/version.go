package build

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// VersionInfo holds resolved version metadata from git tags.
type VersionInfo struct {
	Version   string // "1.2.3" or "1.2.3-dev.abc1234"
	Major     string
	Minor     string
	Patch     string
	SHA       string // full HEAD sha
	Branch    string
	IsRelease bool // true if HEAD is exactly the latest semver tag
}

// DetectVersion resolves version info from the repository's semver tags.
// Repos without tags get a 0.0.0 dev version; never an error path on its
// own, since {version} templates are optional.
func DetectVersion(rootDir string) (*VersionInfo, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", rootDir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	v := &VersionInfo{SHA: head.Hash().String()}
	if head.Name().IsBranch() {
		v.Branch = head.Name().Short()
	}

	best, bestHash := latestSemverTag(repo)
	if best == nil {
		v.Version = fmt.Sprintf("0.0.0-dev.%s", shortHash(v.SHA))
		v.Major, v.Minor, v.Patch = "0", "0", "0"
		return v, nil
	}

	v.Major = fmt.Sprintf("%d", best.Major())
	v.Minor = fmt.Sprintf("%d", best.Minor())
	v.Patch = fmt.Sprintf("%d", best.Patch())
	v.IsRelease = bestHash == head.Hash()

	if v.IsRelease {
		v.Version = best.String()
	} else {
		v.Version = fmt.Sprintf("%s-dev.%s", best.String(), shortHash(v.SHA))
	}

	return v, nil
}

// latestSemverTag returns the highest semver tag and the commit it points
// at. Non-semver tags are skipped.
func latestSemverTag(repo *git.Repository) (*semver.Version, plumbing.Hash) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, plumbing.ZeroHash
	}
	defer tags.Close()

	var best *semver.Version
	var bestHash plumbing.Hash

	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		parsed, err := semver.NewVersion(ref.Name().Short())
		if err != nil {
			return nil
		}
		if best != nil && !parsed.GreaterThan(best) {
			return nil
		}

		// Annotated tags point at tag objects; resolve to the commit.
		hash := ref.Hash()
		if obj, err := repo.TagObject(hash); err == nil {
			hash = obj.Target
		}

		best = parsed
		bestHash = hash
		return nil
	})

	return best, bestHash
}

func shortHash(sha string) string {
	if len(sha) >= 7 {
		return sha[:7]
	}
	return sha
}
