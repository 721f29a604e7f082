package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dlumbrer/Code-docencia/internal/app"
	"github.com/dlumbrer/Code-docencia/internal/cloner"
	"github.com/dlumbrer/Code-docencia/internal/config"
	"github.com/dlumbrer/Code-docencia/internal/directory"
	"github.com/dlumbrer/Code-docencia/internal/gitlabapi"
	"github.com/dlumbrer/Code-docencia/internal/testrunner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type cliOptions struct {
	configPath string
	students   string
	practice   string
	cloningDir string
	testingDir string
	solvedDir  string
	noClone    bool
	silent     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "retrieve-repos: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "retrieve-repos",
		Short: "Retrieve student forks of practice repositories",
		Long: `retrieve-repos crawls the forks of each practice's reference repository,
matches them against the student roster exported from the course platform,
clones the matched repositories, and writes not_founds.txt plus an
enriched roster with the resolved lab and GitLab usernames.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, false)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config/retrieve.yaml", "path to YAML config file")
	flags.StringVar(&opts.students, "students", "", "csv file with students, exported from the course platform")
	flags.StringVar(&opts.practice, "practice", "", "practice id (:all: for every practice, default: last registered)")
	flags.StringVar(&opts.cloningDir, "cloning_dir", "retrieved", "directory for cloning retrieved practices")
	flags.StringVar(&opts.testingDir, "testing_dir", "/tmp/p", "directory with already cloned repos, used with --no_clone")
	flags.StringVar(&opts.solvedDir, "solved_dir", "", "solved practice directory; when set, run its checker on each clone")
	flags.BoolVar(&opts.noClone, "no_clone", false, "don't clone repos, assume repos were already cloned")
	flags.BoolVar(&opts.silent, "silent", false, "silent output, only summary is written")
	_ = rootCmd.MarkPersistentFlagRequired("students")

	exportCmd := &cobra.Command{
		Use:   "export-roster",
		Short: "Re-export the enriched roster without retrieving anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, true)
		},
	}
	rootCmd.AddCommand(exportCmd)

	return rootCmd
}

func run(ctx context.Context, opts *cliOptions, exportOnly bool) error {
	configFile, err := os.Open(opts.configPath)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = configFile.Close()
	}()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := buildLogger(cfg.Log.Level, opts.silent)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	token, err := config.ReadTokenFile(cfg.GitLab.TokenFile)
	if err != nil {
		return err
	}
	if token == "" {
		logger.Info("no token found, using unauthenticated API access")
	}

	apiClient := gitlabapi.NewClient(
		&http.Client{Timeout: cfg.GitLab.RequestTimeout},
		gitlabapi.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		})
	forksClient, err := gitlabapi.NewForksClient(cfg.GitLab.BaseURL, apiClient, cfg.GitLab.PerPage)
	if err != nil {
		return fmt.Errorf("build forks client: %w", err)
	}

	var runner app.CheckRunner
	if opts.solvedDir != "" {
		runner = testrunner.New(logger, opts.silent)
	}

	pipeline := app.NewPipeline(app.Options{
		StudentsPath: opts.students,
		CloningDir:   opts.cloningDir,
		TestingDir:   opts.testingDir,
		SolvedDir:    opts.solvedDir,
		NoClone:      opts.noClone,
		Token:        token,
	}, forksClient, cloner.New(cfg.Clone.User, token, logger), runner, directory.FingerResolver{}, logger)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if exportOnly {
		return pipeline.ExportRoster(rootCtx)
	}

	practices, err := cfg.SelectPractices(opts.practice)
	if err != nil {
		return err
	}
	return pipeline.Run(rootCtx, practices)
}

func buildLogger(level string, silent bool) (*zap.Logger, error) {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel(level))
	if silent {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return loggerConfig.Build()
}

func logLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
