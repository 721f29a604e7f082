// Package app orchestrates the per-practice retrieval pipeline: crawl the
// fork listing, match forks to students, clone matches, and write reports.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dlumbrer/Code-docencia/internal/config"
	"github.com/dlumbrer/Code-docencia/internal/directory"
	"github.com/dlumbrer/Code-docencia/internal/gitlabapi"
	"github.com/dlumbrer/Code-docencia/internal/match"
	"github.com/dlumbrer/Code-docencia/internal/report"
	"github.com/dlumbrer/Code-docencia/internal/roster"
	"go.uber.org/zap"
)

// ForkLister lists every fork of a reference repository.
type ForkLister interface {
	ListForks(ctx context.Context, escapedRepo, token string) ([]gitlabapi.Fork, error)
}

// RepoCloner clones one fork into a local directory.
type RepoCloner interface {
	Clone(ctx context.Context, fork gitlabapi.Fork, dir string) error
}

// CheckRunner evaluates one clone against a solved practice.
type CheckRunner interface {
	Run(ctx context.Context, cloneDir, solvedDir string) error
}

// Options are the per-invocation settings from the command line.
type Options struct {
	StudentsPath string
	CloningDir   string
	TestingDir   string
	SolvedDir    string
	NoClone      bool
	Token        string
}

// Pipeline runs retrieval for a batch of practices. Each practice's
// matching state is independent: the roster is reloaded per practice.
type Pipeline struct {
	opts     Options
	forks    ForkLister
	cloner   RepoCloner
	runner   CheckRunner
	resolver directory.Resolver
	logger   *zap.Logger
}

// NewPipeline creates a Pipeline. The runner may be nil when no solved
// practice directory is configured.
func NewPipeline(opts Options, forks ForkLister, repoCloner RepoCloner, runner CheckRunner, resolver directory.Resolver, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		opts:     opts,
		forks:    forks,
		cloner:   repoCloner,
		runner:   runner,
		resolver: resolver,
		logger:   logger,
	}
}

// loadError marks roster problems that abort the whole invocation, as
// opposed to crawl failures that only abort the current practice.
type loadError struct {
	err error
}

func (e loadError) Error() string { return e.err.Error() }
func (e loadError) Unwrap() error { return e.err }

// Run processes the batch practice by practice. A crawl failure aborts only
// that practice and is reported at the end; a roster load failure is fatal.
func (p *Pipeline) Run(ctx context.Context, practices []config.Practice) error {
	var errs []error
	for _, practice := range practices {
		p.logger.Info("retrieving practice", zap.String("practice", practice.ID))
		if err := p.retrievePractice(ctx, practice); err != nil {
			var fatal loadError
			if errors.As(err, &fatal) {
				return err
			}
			p.logger.Error("practice retrieval failed",
				zap.String("practice", practice.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("practice %s: %w", practice.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ExportRoster re-exports the enriched roster without crawling anything.
func (p *Pipeline) ExportRoster(ctx context.Context) error {
	students, err := roster.Load(ctx, p.opts.StudentsPath, p.resolver, p.logger)
	if err != nil {
		return err
	}
	return report.WriteEnriched(roster.EnrichedPath(students.Path), students)
}

func (p *Pipeline) retrievePractice(ctx context.Context, practice config.Practice) error {
	students, err := roster.Load(ctx, p.opts.StudentsPath, p.resolver, p.logger)
	if err != nil {
		return loadError{err: err}
	}

	forks, err := p.forks.ListForks(ctx, practice.EscapedRepo, p.opts.Token)
	if err != nil {
		return fmt.Errorf("list forks of %s: %w", practice.Repo, err)
	}

	matches := match.Forks(forks, students, p.logger)
	p.cloneMatches(ctx, practice, matches)

	if err := report.WriteNotFounds(report.NotFoundsFile, students); err != nil {
		return err
	}
	if students.Modified {
		p.logger.Info("roster was enriched, writing new version",
			zap.String("path", roster.EnrichedPath(students.Path)))
		if err := report.WriteEnriched(roster.EnrichedPath(students.Path), students); err != nil {
			return err
		}
	}

	p.logger.Info("practice retrieved",
		zap.String("practice", practice.ID),
		zap.Int("total_forks", len(forks)),
		zap.Int("repos_found", len(matches)),
		zap.Int("students", students.Len()))
	return nil
}

// cloneMatches clones each matched fork and optionally runs the checker.
// A failed clone is already logged by the cloner; the batch continues.
func (p *Pipeline) cloneMatches(ctx context.Context, practice config.Practice, matches []match.Pair) {
	base := roster.BaseName(p.opts.StudentsPath)
	for _, pair := range matches {
		dir := filepath.Join(p.opts.CloningDir, base, practice.ID, pair.Fork.NamespacePath)
		if p.opts.NoClone {
			// Repos are assumed to be already present under the testing dir.
			dir = filepath.Join(p.opts.TestingDir, pair.Fork.NamespacePath)
		} else if err := p.cloner.Clone(ctx, pair.Fork, dir); err != nil {
			continue
		}
		if p.runner != nil && p.opts.SolvedDir != "" {
			if err := p.runner.Run(ctx, dir, p.opts.SolvedDir); err != nil {
				p.logger.Warn("checker failed for clone",
					zap.String("student", pair.Student.EmailLogin),
					zap.Error(err))
			}
		}
	}
}
