package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// Collapsible log sections. GitHub Actions uses ::group:: workflow commands;
// GitLab uses section_start/section_end escape markers. Outside CI both are
// no-ops so local runs stay clean.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), id, name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitHubActions():
		fmt.Fprintf(w, "::endgroup::\n")
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
	}
}

// Notice emits a GitHub Actions notice annotation, or a plain line elsewhere.
func Notice(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if IsGitHubActions() {
		fmt.Fprintf(w, "::notice::%s\n", msg)
		return
	}
	fmt.Fprintf(w, "    %s\n", msg)
}
