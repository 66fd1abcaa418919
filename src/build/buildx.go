package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Buildx wraps docker buildx commands.
type Buildx struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(verbose bool) *Buildx {
	return &Buildx{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Build executes a single build step via docker buildx.
func (bx *Buildx) Build(ctx context.Context, step BuildStep) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{
		Name: step.Name,
	}

	args := bx.buildArgs(step)

	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: docker %s\n", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = bx.Stderr

	if err := cmd.Run(); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = fmt.Errorf("docker buildx build failed: %w", err)
		return result, result.Error
	}

	result.Status = "success"
	result.Duration = time.Since(start)
	result.Images = step.Tags

	return result, nil
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(step BuildStep) []string {
	args := []string{"buildx", "build"}

	if step.Dockerfile != "" {
		args = append(args, "--file", step.Dockerfile)
	}

	if step.Target != "" {
		args = append(args, "--target", step.Target)
	}

	if len(step.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(step.Platforms, ","))
	}

	for k, v := range step.BuildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}

	for _, tag := range step.Tags {
		args = append(args, "--tag", tag)
	}

	// Layer cache
	if step.CacheFrom != "" {
		args = append(args, "--cache-from", step.CacheFrom)
	}
	if step.CacheTo != "" {
		args = append(args, "--cache-to", step.CacheTo)
	}

	// Output mode: push and load are mutually exclusive, and the daemon
	// cannot load a multi-platform image.
	switch {
	case step.Push:
		args = append(args, "--push")
	case step.Load && !IsMultiPlatform(step):
		args = append(args, "--load")
	}

	buildContext := step.Context
	if buildContext == "" {
		buildContext = "."
	}
	args = append(args, buildContext)

	return args
}

// EnsureBuilder checks that a buildx builder is available and creates one
// if needed. Each stage calls this independently; stages share no state.
func (bx *Buildx) EnsureBuilder(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "buildx", "inspect")
	if err := cmd.Run(); err != nil {
		create := exec.CommandContext(ctx, "docker", "buildx", "create", "--use", "--name", "stevedore")
		create.Stdout = bx.Stderr
		create.Stderr = bx.Stderr
		if createErr := create.Run(); createErr != nil {
			return fmt.Errorf("creating buildx builder: %w", createErr)
		}
	}
	return nil
}

// Login authenticates the docker CLI against a registry host. The password
// travels over stdin, never argv.
func (bx *Buildx) Login(ctx context.Context, host, user, password string) error {
	if user == "" || password == "" {
		return fmt.Errorf("no credentials for %s (set the credential env vars or run in CI)", host)
	}

	cmd := exec.CommandContext(ctx, "docker", "login", host, "--username", user, "--password-stdin")
	cmd.Stdin = strings.NewReader(password)
	cmd.Stdout = io.Discard
	cmd.Stderr = bx.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker login %s: %w", host, err)
	}
	return nil
}
