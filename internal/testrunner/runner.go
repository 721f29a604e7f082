// Package testrunner invokes the practice checker against a cloned
// repository, using the tests shipped with the solved reference practice.
package testrunner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	checkerScript = "check.py"
	evalTestsDir  = "evaltests"
)

// Runner copies a practice's tests into a clone and runs the checker there.
type Runner struct {
	logger *zap.Logger
	silent bool
	// runFn is injected for testability; the default executes the checker.
	runFn func(cmd *exec.Cmd) error
}

// New creates a Runner. With silent set the checker only prints its summary.
func New(logger *zap.Logger, silent bool) *Runner {
	return &Runner{
		logger: logger,
		silent: silent,
		runFn:  func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

// Run evaluates one clone against the solved practice at solvedDir. The
// checker's exit status decides the result; a failing checker is reported
// as an error but must not abort the batch.
func (r *Runner) Run(ctx context.Context, cloneDir, solvedDir string) error {
	if err := copyTests(cloneDir, solvedDir); err != nil {
		return err
	}

	args := []string{checkerScript, "--testsdir", evalTestsDir}
	if r.silent {
		args = append(args, "--silent")
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, "python3", args...)
	cmd.Dir = cloneDir
	cmd.Stdout = &stdout
	if !r.silent {
		cmd.Stderr = os.Stderr
	}

	r.logger.Info("running checker", zap.String("dir", cloneDir))
	err := r.runFn(cmd)
	r.logger.Info("checker finished",
		zap.String("dir", cloneDir),
		zap.String("output", stdout.String()),
		zap.Bool("passed", err == nil))
	if err != nil {
		return fmt.Errorf("checker failed in %s: %w", cloneDir, err)
	}
	return nil
}

// copyTests stages the solved practice's tests and checker into the clone.
func copyTests(cloneDir, solvedDir string) error {
	testsTarget := filepath.Join(cloneDir, evalTestsDir)
	// CopyFS refuses to overwrite, so clear any staging from a previous run.
	if err := os.RemoveAll(testsTarget); err != nil {
		return fmt.Errorf("clear tests dir: %w", err)
	}
	if err := os.MkdirAll(testsTarget, 0o755); err != nil {
		return fmt.Errorf("create tests dir: %w", err)
	}
	if err := os.CopyFS(testsTarget, os.DirFS(filepath.Join(solvedDir, "tests"))); err != nil {
		return fmt.Errorf("copy tests into clone: %w", err)
	}

	checker, err := os.ReadFile(filepath.Join(solvedDir, checkerScript))
	if err != nil {
		return fmt.Errorf("read checker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cloneDir, checkerScript), checker, 0o755); err != nil {
		return fmt.Errorf("copy checker into clone: %w", err)
	}
	return nil
}
