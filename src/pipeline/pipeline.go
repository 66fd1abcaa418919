// Package pipeline orchestrates the two delivery stages: a build stage
// that always runs, and a push stage that runs only when the build stage
// succeeded and the push gate is open. The stages share no mutable state;
// the push stage re-resolves its inputs and re-ensures the builder rather
// than trusting anything the build stage left behind.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alderglen/stevedore/src/build"
	"github.com/alderglen/stevedore/src/ci"
	"github.com/alderglen/stevedore/src/config"
	"github.com/alderglen/stevedore/src/output"
	"github.com/alderglen/stevedore/src/registry"
	"github.com/alderglen/stevedore/src/scan"
)

// Executor runs buildx operations. build.Buildx is the real one; tests
// substitute a stub.
type Executor interface {
	EnsureBuilder(ctx context.Context) error
	Build(ctx context.Context, step build.BuildStep) (*build.StepResult, error)
	Login(ctx context.Context, host, user, password string) error
}

// SecretScanner is the pre-push secrets gate.
type SecretScanner interface {
	ScanDir(ctx context.Context, rootDir string) ([]scan.Finding, error)
}

// Runner executes the pipeline for one trigger.
type Runner struct {
	Config  *config.Config
	Trigger *ci.Context
	Exec    Executor
	Scanner SecretScanner // nil disables the secrets gate
	RootDir string
	RunID   string

	Out     io.Writer
	Color   bool
	Verbose bool
	DryRun  bool
}

// Result summarizes a full pipeline run.
type Result struct {
	BuildStatus string // success, failed
	PushStatus  string // success, failed, skipped
	GateReason  string
	Pushed      []string // fully qualified refs that were published
	Duration    time.Duration
}

// Run executes build stage → gate → push stage. A build failure returns
// immediately: the push stage is never scheduled (dependency edge). A
// closed gate is not an error; the run succeeds with PushStatus "skipped".
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{PushStatus: "skipped"}

	r.contextBlock()

	in, err := ResolveInputs(r.RootDir, r.Config, r.Trigger)
	if err != nil {
		return nil, err
	}

	gate := EvalGate(r.Config.Gate, r.Trigger)
	res.GateReason = gate.Reason

	if r.DryRun {
		r.printDryRun(in, gate)
		res.BuildStatus = "skipped"
		res.Duration = time.Since(start)
		return res, nil
	}

	// --- Build stage ---
	if err := r.RunBuildStage(ctx, in); err != nil {
		res.BuildStatus = "failed"
		res.Duration = time.Since(start)
		return res, err
	}
	res.BuildStatus = "success"

	// --- Push gate ---
	if !gate.Open {
		output.Notice(r.Out, "push stage skipped: %s", gate.Reason)
		r.summary(res, time.Since(start))
		res.Duration = time.Since(start)
		return res, nil
	}

	// --- Push stage ---
	pushed, err := r.RunPushStage(ctx, in)
	res.Pushed = pushed
	if err != nil {
		res.PushStatus = "failed"
		res.Duration = time.Since(start)
		return res, err
	}
	res.PushStatus = "success"

	r.summary(res, time.Since(start))
	res.Duration = time.Since(start)
	return res, nil
}

// RunBuildStage executes the build-only stage: builder bootstrap, then the
// plan with push forced off.
func (r *Runner) RunBuildStage(ctx context.Context, in *Inputs) error {
	output.SectionStart(r.Out, "sv_build", "Build")
	defer output.SectionEnd(r.Out, "sv_build")
	start := time.Now()

	if err := r.Exec.EnsureBuilder(ctx); err != nil {
		return err
	}

	plan := BuildStagePlan(r.Config, in)
	stage := &build.BuildResult{}
	for _, step := range plan.Steps {
		sr, err := r.Exec.Build(ctx, step)
		if sr != nil {
			stage.Steps = append(stage.Steps, *sr)
		}
		if err != nil {
			return fmt.Errorf("build stage: %w", err)
		}
	}
	stage.Duration = time.Since(start)

	sec := output.NewSection(r.Out, "Build", stage.Duration, r.Color)
	sec.Row("%-16s%s", "dockerfile", in.Dockerfile)
	sec.Row("%-16s%s", "context", r.Config.Build.Context)
	for _, sr := range stage.Steps {
		sec.Row("%-16s%s %s", "image", strings.Join(sr.Images, ", "), output.Dimmed("(not pushed)", r.Color))
	}
	sec.Close()
	return nil
}

// RunPushStage executes the push stage: secrets gate, per-registry login,
// then one push per registry, fanned out concurrently. Returns every ref
// that was published.
func (r *Runner) RunPushStage(ctx context.Context, in *Inputs) ([]string, error) {
	output.SectionStart(r.Out, "sv_push", "Push")
	defer output.SectionEnd(r.Out, "sv_push")
	start := time.Now()

	if r.Scanner != nil && r.Config.Scan.SecretsEnabled() {
		if err := r.runSecretsGate(ctx); err != nil {
			return nil, err
		}
	}

	// Stage isolation: don't assume the build stage's builder survived.
	if err := r.Exec.EnsureBuilder(ctx); err != nil {
		return nil, err
	}

	plan, err := PushStagePlan(r.Config, in)
	if err != nil {
		return nil, err
	}

	// Login serially (docker config is shared state), push concurrently.
	for _, step := range plan.Steps {
		for _, target := range step.Registries {
			user, token := registry.Credentials(target.Credentials)
			if err := r.Exec.Login(ctx, target.URL, user, token); err != nil {
				return nil, fmt.Errorf("push stage: %w", err)
			}
		}
	}

	var mu sync.Mutex
	stage := &build.BuildResult{}

	g, gctx := errgroup.WithContext(ctx)
	for _, step := range plan.Steps {
		step := step
		g.Go(func() error {
			sr, err := r.Exec.Build(gctx, step)
			if sr != nil {
				mu.Lock()
				stage.Steps = append(stage.Steps, *sr)
				mu.Unlock()
			}
			if err != nil {
				return fmt.Errorf("%s: %w", step.Name, err)
			}
			return nil
		})
	}
	waitErr := g.Wait()
	stage.Duration = time.Since(start)

	var pushed []string
	for _, sr := range stage.Steps {
		if sr.Status == "success" {
			pushed = append(pushed, sr.Images...)
		}
	}
	if waitErr != nil {
		return pushed, fmt.Errorf("push stage: %w", waitErr)
	}

	sec := output.NewSection(r.Out, "Push", stage.Duration, r.Color)
	for _, ref := range pushed {
		sec.Row("%-50s %s", ref, output.StatusIcon("success", r.Color))
	}
	sec.Close()

	r.verifyPushed(ctx, plan)

	return pushed, nil
}

// runSecretsGate fails the push stage on any secret hit in the build
// context.
func (r *Runner) runSecretsGate(ctx context.Context) error {
	start := time.Now()
	findings, err := r.Scanner.ScanDir(ctx, r.RootDir)
	if err != nil {
		return fmt.Errorf("secrets gate: %w", err)
	}
	if len(findings) == 0 {
		return nil
	}

	sec := output.NewSection(r.Out, "Secrets", time.Since(start), r.Color)
	for _, f := range findings {
		sec.Row("%s:%d  %s (%s)", f.File, f.Line, f.Description, f.RuleID)
	}
	sec.Close()

	return fmt.Errorf("secrets gate: %d finding(s) in the build context", len(findings))
}

// verifyPushed checks the registry API for the pushed tags. Verification
// is advisory: a registry that lags its own API must not fail a push that
// buildx already confirmed.
func (r *Runner) verifyPushed(ctx context.Context, plan *build.BuildPlan) {
	for _, step := range plan.Steps {
		for _, target := range step.Registries {
			reg, err := registry.New(target.Provider, target.URL, target.Credentials)
			if err != nil {
				continue // generic registries have no verification API
			}
			missing, err := registry.VerifyTags(ctx, reg, target.Path, target.Tags)
			if err != nil {
				output.Notice(r.Out, "verify %s/%s: %v", target.URL, target.Path, err)
				continue
			}
			if len(missing) > 0 {
				output.Notice(r.Out, "verify %s/%s: tags not yet visible: %s",
					target.URL, target.Path, strings.Join(missing, ", "))
			}
		}
	}
}

// contextBlock prints the trigger context header.
func (r *Runner) contextBlock() {
	t := r.Trigger
	kv := []output.KV{
		{Key: "Run", Value: r.RunID},
		{Key: "Trigger", Value: t.Describe()},
	}
	if t.Repository != "" {
		kv = append(kv, output.KV{Key: "Repository", Value: t.Repository})
	}
	if t.ShortSHA != "" {
		kv = append(kv, output.KV{Key: "Commit", Value: t.ShortSHA})
	}
	if t.Actor != "" {
		kv = append(kv, output.KV{Key: "Actor", Value: t.Actor})
	}
	output.ContextBlock(r.Out, kv)
}

// printDryRun shows the resolved plans and the gate decision without
// executing anything.
func (r *Runner) printDryRun(in *Inputs, gate GateResult) {
	buildPlan := BuildStagePlan(r.Config, in)
	r.printPlan("build stage", buildPlan)

	if gate.Open {
		if pushPlan, err := PushStagePlan(r.Config, in); err == nil {
			r.printPlan("push stage", pushPlan)
		} else {
			fmt.Fprintf(r.Out, "push stage: %v\n", err)
		}
	} else {
		fmt.Fprintf(r.Out, "push stage: skipped (%s)\n", gate.Reason)
	}
}

func (r *Runner) printPlan(name string, plan *build.BuildPlan) {
	fmt.Fprintf(r.Out, "%s:\n", name)
	for _, step := range plan.Steps {
		fmt.Fprintf(r.Out, "  step: %s\n", step.Name)
		fmt.Fprintf(r.Out, "    dockerfile: %s\n", step.Dockerfile)
		fmt.Fprintf(r.Out, "    context:    %s\n", step.Context)
		if len(step.Platforms) > 0 {
			fmt.Fprintf(r.Out, "    platforms:  %v\n", step.Platforms)
		}
		fmt.Fprintf(r.Out, "    tags:       %v\n", step.Tags)
		if step.CacheFrom != "" {
			fmt.Fprintf(r.Out, "    cache:      %s\n", step.CacheFrom)
		}
		fmt.Fprintf(r.Out, "    push:       %v\n", step.Push)
	}
}

// summary prints the closing summary table.
func (r *Runner) summary(res *Result, elapsed time.Duration) {
	sec := output.NewSection(r.Out, "Summary", 0, r.Color)
	sec.SummaryRow("build", res.BuildStatus, "")

	pushDetail := res.GateReason
	if len(res.Pushed) > 0 {
		pushDetail = fmt.Sprintf("%d tag(s)", len(res.Pushed))
	}
	sec.SummaryRow("push", res.PushStatus, pushDetail)

	sec.Separator()
	status := "success"
	if res.BuildStatus == "failed" || res.PushStatus == "failed" {
		status = "failed"
	}
	sec.SummaryTotal(elapsed, status)
	sec.Close()
}
