// File: cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/karavolt/surveyor-cli/internal/bot"
	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/browser/cdp"
	"github.com/karavolt/surveyor-cli/internal/browser/lite"
	"github.com/karavolt/surveyor-cli/internal/config"
	"github.com/karavolt/surveyor-cli/internal/observability"
)

const stopTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(newRunCmd())
}

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Starts filling the survey at the given URL",
		Long: `Starts a browser session, navigates to the survey, and answers its
pages until no further progress is possible. The run can be controlled
interactively on stdin:

  pause              stop answering, keep the session open
  resume             continue where the run paused
  profile <name>     switch the active response profile
  delay <min> <max>  change the pacing window (seconds)
  status             print the current state
  stop               close the session and exit`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so they override file and env values.
			if err := viper.BindPFlag("bot.profile", cmd.Flags().Lookup("profile")); err != nil {
				return err
			}
			if err := viper.BindPFlag("bot.min_delay", cmd.Flags().Lookup("min-delay")); err != nil {
				return err
			}
			if err := viper.BindPFlag("bot.max_delay", cmd.Flags().Lookup("max-delay")); err != nil {
				return err
			}
			if err := viper.BindPFlag("bot.profiles_file", cmd.Flags().Lookup("profiles-file")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.driver", cmd.Flags().Lookup("driver")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.user_data_dir", cmd.Flags().Lookup("user-data-dir"))
		},
		RunE: runSurvey,
	}

	runCmd.Flags().String("profile", "Default", "response profile to answer with")
	runCmd.Flags().Float64("min-delay", 1.0, "minimum delay between actions, in seconds")
	runCmd.Flags().Float64("max-delay", 2.5, "maximum delay between actions, in seconds")
	runCmd.Flags().String("profiles-file", "", "JSON file with additional response profiles")
	runCmd.Flags().String("driver", "cdp", `browser driver ("cdp" or "lite")`)
	runCmd.Flags().Bool("headless", false, "run the browser without a window")
	runCmd.Flags().String("user-data-dir", "", "persistent browser profile directory")
	return runCmd
}

func runSurvey(cmd *cobra.Command, args []string) error {
	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	profiles, err := bot.LoadProfiles(cfg.Bot, cfg.Profiles)
	if err != nil {
		return err
	}
	active := profiles[cfg.Bot.Profile]

	// Tee the run's log entries into the feed so the operator sees them
	// inline on the control terminal.
	feed := observability.NewFeed(256, zapcore.InfoLevel)
	logger := observability.GetLogger().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, feed)
	}))
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := openDriver(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	b := bot.New(driver, cfg.Bot, active, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := b.Stop(closeCtx); err != nil {
			logger.Warn("Session teardown reported an error", zap.Error(err))
		}
	}()

	if err := b.Start(ctx, url); err != nil {
		return fmt.Errorf("could not start the run: %w", err)
	}

	commands := readCommands(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line := <-feed.Lines():
				fmt.Println(line)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case command, ok := <-commands:
				if !ok {
					return nil
				}
				if done := handleCommand(gctx, b, profiles, command, logger); done {
					stop()
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// openDriver builds the configured browser driver. The cdp driver launches
// a real Chrome; the lite driver runs the session in-process.
func openDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (browser.Driver, error) {
	if strings.ToLower(cfg.Browser.Driver) == "lite" {
		return lite.New(cfg.Network, logger), nil
	}
	return cdp.New(ctx, cfg.Browser, cfg.Network, logger)
}

// readCommands feeds stdin lines into a channel. The reader goroutine
// blocks on stdin and is abandoned at process exit; the channel consumer
// honors the context.
func readCommands(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case out <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// handleCommand executes one operator command. Returns true when the run
// should end.
func handleCommand(ctx context.Context, b *bot.Bot, profiles map[string]*bot.ResponseProfile, command string, logger *zap.Logger) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "pause":
		b.Pause()
	case "resume", "start":
		if err := b.Start(ctx, ""); err != nil {
			logger.Error("Could not resume", zap.Error(err))
		}
	case "stop", "quit", "exit":
		return true
	case "status":
		fmt.Printf("state: %s, profile: %s\n", b.State(), b.Profile().Name)
	case "profile":
		if len(fields) != 2 {
			fmt.Println("usage: profile <name>")
			return false
		}
		profile, ok := profiles[fields[1]]
		if !ok {
			fmt.Printf("unknown profile %q\n", fields[1])
			return false
		}
		if err := b.SetProfile(profile); err != nil {
			logger.Error("Could not switch profile", zap.Error(err))
		}
	case "delay":
		if len(fields) != 3 {
			fmt.Println("usage: delay <min> <max>")
			return false
		}
		min, errMin := strconv.ParseFloat(fields[1], 64)
		max, errMax := strconv.ParseFloat(fields[2], 64)
		if errMin != nil || errMax != nil {
			fmt.Println("delay bounds must be numbers")
			return false
		}
		if err := b.SetDelayWindow(bot.DelayWindow{Min: min, Max: max}); err != nil {
			fmt.Printf("rejected: %v\n", err)
		}
	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
	return false
}
