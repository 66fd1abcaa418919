package pipeline

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/alderglen/stevedore/src/build"
	"github.com/alderglen/stevedore/src/ci"
	"github.com/alderglen/stevedore/src/scan"
)

// stubExec records buildx calls instead of shelling out.
type stubExec struct {
	mu       sync.Mutex
	builds   []build.BuildStep
	logins   []string
	failStep string // step name substring that fails
}

func (s *stubExec) EnsureBuilder(ctx context.Context) error { return nil }

func (s *stubExec) Build(ctx context.Context, step build.BuildStep) (*build.StepResult, error) {
	s.mu.Lock()
	s.builds = append(s.builds, step)
	s.mu.Unlock()

	if s.failStep != "" && strings.Contains(step.Name, s.failStep) {
		return nil, errors.New("simulated build failure")
	}
	return &build.StepResult{Name: step.Name, Status: "success", Images: step.Tags}, nil
}

func (s *stubExec) Login(ctx context.Context, host, user, password string) error {
	s.mu.Lock()
	s.logins = append(s.logins, host)
	s.mu.Unlock()
	return nil
}

func (s *stubExec) pushAttempted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.builds {
		if b.Push {
			return true
		}
	}
	return false
}

type stubScanner struct {
	findings []scan.Finding
	err      error
}

func (s *stubScanner) ScanDir(ctx context.Context, rootDir string) ([]scan.Finding, error) {
	return s.findings, s.err
}

// reportingExec rewrites push results the way a digest-aware builder
// would, so tests can tell reported results apart from planned tags.
type reportingExec struct {
	stubExec
}

func (e *reportingExec) Build(ctx context.Context, step build.BuildStep) (*build.StepResult, error) {
	sr, err := e.stubExec.Build(ctx, step)
	if sr != nil && step.Push {
		imgs := make([]string, len(sr.Images))
		for i, ref := range sr.Images {
			imgs[i] = ref + "@sha256:feed"
		}
		sr.Images = imgs
	}
	return sr, err
}

func newRunner(t *testing.T, trigger *ci.Context, exec Executor) *Runner {
	t.Helper()
	return &Runner{
		Config:  testConfig(),
		Trigger: trigger,
		Exec:    exec,
		RootDir: repoDir(t),
		RunID:   "test",
		Out:     &bytes.Buffer{},
	}
}

func TestRun_PushToMainPublishes(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	res, err := newRunner(t, trigger, exec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.BuildStatus != "success" || res.PushStatus != "success" {
		t.Errorf("statuses = %s/%s", res.BuildStatus, res.PushStatus)
	}
	want := []string{
		"registry.example.com/owner/tool:latest",
		"registry.example.com/owner/tool:abc123",
	}
	if !reflect.DeepEqual(res.Pushed, want) {
		t.Errorf("pushed = %v, want %v", res.Pushed, want)
	}
	if len(exec.logins) != 1 || exec.logins[0] != "registry.example.com" {
		t.Errorf("logins = %v", exec.logins)
	}
}

func TestRun_PushedRefsComeFromStepResults(t *testing.T) {
	exec := &reportingExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	res, err := newRunner(t, trigger, exec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"registry.example.com/owner/tool:latest@sha256:feed",
		"registry.example.com/owner/tool:abc123@sha256:feed",
	}
	if !reflect.DeepEqual(res.Pushed, want) {
		t.Errorf("pushed = %v, want the executor-reported refs %v", res.Pushed, want)
	}
}

func TestRun_PullRequestBuildsButNeverPushes(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPullRequest, Branch: "fix-thing", SHA: "abc123", Repository: "owner/tool"}

	res, err := newRunner(t, trigger, exec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.BuildStatus != "success" {
		t.Errorf("build status = %s", res.BuildStatus)
	}
	if res.PushStatus != "skipped" {
		t.Errorf("push status = %s, want skipped", res.PushStatus)
	}
	if exec.pushAttempted() {
		t.Error("no push step may run on a pull request")
	}
	if len(exec.logins) != 0 {
		t.Errorf("no logins expected, got %v", exec.logins)
	}
}

func TestRun_NonMainBranchSkipsPush(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "develop", SHA: "abc123", Repository: "owner/tool"}

	res, err := newRunner(t, trigger, exec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PushStatus != "skipped" {
		t.Errorf("push status = %s, want skipped", res.PushStatus)
	}
	if exec.pushAttempted() {
		t.Error("no push step may run off the release branch")
	}
}

func TestRun_BuildFailureBlocksPush(t *testing.T) {
	exec := &stubExec{failStep: "build"}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	res, err := newRunner(t, trigger, exec).Run(context.Background())
	if err == nil {
		t.Fatal("a failed build must fail the run")
	}

	if res.BuildStatus != "failed" {
		t.Errorf("build status = %s, want failed", res.BuildStatus)
	}
	if res.PushStatus != "skipped" {
		t.Errorf("push status = %s, want skipped", res.PushStatus)
	}
	if exec.pushAttempted() {
		t.Error("push stage must never be scheduled after a build failure")
	}
}

func TestRun_DryRunExecutesNothing(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	r := newRunner(t, trigger, exec)
	r.DryRun = true

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.BuildStatus != "skipped" || res.PushStatus != "skipped" {
		t.Errorf("statuses = %s/%s, want skipped/skipped", res.BuildStatus, res.PushStatus)
	}
	if len(exec.builds) != 0 || len(exec.logins) != 0 {
		t.Errorf("dry run executed: builds=%d logins=%d", len(exec.builds), len(exec.logins))
	}
}

func TestRun_SecretsGateFailsPush(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	r := newRunner(t, trigger, exec)
	r.Scanner = &stubScanner{findings: []scan.Finding{
		{File: "config.env", Line: 3, RuleID: "generic-api-key", Description: "API key"},
	}}

	res, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("a secret finding must fail the push stage")
	}
	if res.BuildStatus != "success" {
		t.Errorf("build status = %s, the build stage already passed", res.BuildStatus)
	}
	if res.PushStatus != "failed" {
		t.Errorf("push status = %s, want failed", res.PushStatus)
	}
	if exec.pushAttempted() {
		t.Error("no push step may run after a secrets hit")
	}
}

func TestRun_CleanScanProceeds(t *testing.T) {
	exec := &stubExec{}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	r := newRunner(t, trigger, exec)
	r.Scanner = &stubScanner{}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PushStatus != "success" {
		t.Errorf("push status = %s", res.PushStatus)
	}
}

func TestRunPushStage_FailedPushReportsStep(t *testing.T) {
	exec := &stubExec{failStep: "push"}
	trigger := &ci.Context{Event: ci.EventPush, Branch: "main", SHA: "abc123", Repository: "owner/tool"}

	r := newRunner(t, trigger, exec)
	in, err := ResolveInputs(r.RootDir, r.Config, trigger)
	if err != nil {
		t.Fatalf("ResolveInputs: %v", err)
	}

	if _, err := r.RunPushStage(context.Background(), in); err == nil {
		t.Fatal("expected the push failure to propagate")
	} else if !strings.Contains(err.Error(), "registry.example.com") {
		t.Errorf("error should name the failing registry step: %v", err)
	}
}
