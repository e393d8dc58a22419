// Package main provides the baobab CLI: watch a TeamCity build until it
// finishes, search GitHub Enterprise issues, or serve both over MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"baobab/src/config"
	"baobab/src/logger"
	"baobab/src/mcp"
	"baobab/src/notify"
	"baobab/src/pipeline"
	"baobab/src/poller"
	"baobab/src/provider"
	"baobab/src/render"
	"baobab/src/teamcity"
	"baobab/src/tui"
)

var version = "dev"

var (
	appConfig  *config.Config
	configPath string

	plainOutput bool
	interval    time.Duration
	maxRetries  int
)

// rootCmd watches a single build.
var rootCmd = &cobra.Command{
	Use:   "baobab <build-url>",
	Short: "Watch a TeamCity build until it finishes",
	Long: `baobab polls a TeamCity build once per interval and shows its progress
as a colored bar. When the build finishes it sends a desktop notification
and exits.

Credentials are read from ~/.bb.yaml, a .env file, or the environment
(TEAMCITY_USERNAME, TEAMCITY_PASSWORD).`,
	Example: `  baobab "https://teamcity.example.com/viewLog.html?buildId=12345"`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}
		appConfig = cfg
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := appConfig.ValidateWatch(); err != nil {
			exitWithError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		useTUI := !plainOutput && term.IsTerminal(os.Stdout.Fd())
		if err := runWatch(ctx, args[0], useTUI); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/"+config.FileName+")")

	defaults := poller.DefaultConfig()
	rootCmd.Flags().BoolVar(&plainOutput, "plain", false, "print progress lines instead of the interactive view")
	rootCmd.Flags().DurationVar(&interval, "interval", defaults.Interval, "time between polls")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", defaults.MaxRetries, "consecutive transient failures tolerated before giving up")

	rootCmd.AddCommand(searchCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env from the working directory and then the YAML config.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// openLogger returns a file logger, or a console logger when the log file
// cannot be opened. The interactive view owns the terminal so it always
// gets a file or silence.
func openLogger(cfg *config.Config, interactive bool) (logger.Logger, func()) {
	fileLog, err := logger.NewFileLogger(cfg.LogFile, cfg.LogLevel, logger.DefaultRotationConfig())
	if err == nil {
		return fileLog, func() { fileLog.Close() }
	}
	if interactive {
		return logger.NewSilentLogger(), func() {}
	}

	var console *logger.ConsoleLogger
	if logger.ParseLevel(cfg.LogLevel) <= logger.ParseLevel("debug") {
		console = logger.NewVerboseConsoleLogger()
	} else {
		console = logger.NewConsoleLogger()
	}
	console.Warn("failed to open log file %s: %v", cfg.LogFile, err)
	return console, func() {}
}

func runWatch(ctx context.Context, buildURL string, useTUI bool) error {
	log, closeLog := openLogger(appConfig, useTUI)
	defer closeLog()

	opts := watchOptions(appConfig, buildURL, log)

	if useTUI {
		notifier := notify.NewDesktop()
		err := tui.Run(ctx, buildURL, func(ctx context.Context, display render.Display) error {
			return pipeline.Watch(ctx, opts, display, notifier)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	notifier := notify.Fallback{notify.NewDesktop(), notify.NewTerminal(os.Stderr)}
	display := render.NewLineDisplay(os.Stdout, 80)
	err := pipeline.Watch(ctx, opts, display, notifier)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func watchOptions(cfg *config.Config, buildURL string, log logger.Logger) pipeline.Options {
	poll := poller.DefaultConfig()
	poll.Interval = interval
	poll.MaxRetries = maxRetries

	return pipeline.Options{
		BuildURL: buildURL,
		Credentials: teamcity.Credentials{
			Username: cfg.TeamCityUsername,
			Password: cfg.TeamCityPassword,
		},
		Poll:            poll,
		RedpandaBrokers: cfg.RedpandaBrokers,
		Log:             log,
	}
}

// exitWithError prints a user-facing message and exits.
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
	os.Exit(1)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve build status and issue search over MCP (stdio)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// stdout carries the protocol, so logs only go to the file.
		log, closeLog := openLogger(appConfig, true)
		defer closeLog()

		srv := mcp.NewServer(mcp.Settings{
			Credentials: teamcity.Credentials{
				Username: appConfig.TeamCityUsername,
				Password: appConfig.TeamCityPassword,
			},
			GitHubHost:  appConfig.GitHubHost,
			GitHubToken: appConfig.GitHubToken,
			Log:         log,
		}, version)

		if err := srv.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}
