package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"trafficmix/internal/banner"
	"trafficmix/internal/cli"
	"trafficmix/internal/logger"
	"trafficmix/internal/report"
	"trafficmix/internal/runner"
	"trafficmix/internal/scenario"
	"trafficmix/internal/storage"
	"trafficmix/internal/tui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trafficmix",
	Short: "trafficmix - weighted synthetic traffic generator",
	Long: `
trafficmix drives simulated users against an HTTP service. Every user
repeatedly picks one endpoint from a weighted traffic mix, issues a GET,
then waits a random interval before the next pick.

Built-in mixes: standard (error-heavy) and happy (mostly successful).
Run "trafficmix target" to start the demo service they are written for.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		log := logger.FromConfig()
		defer log.Sync()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		store := openHistory(log)
		if store != nil {
			defer store.Close()
		}

		if viper.GetBool("tui") {
			return runTUI(ctx, cfg, store, log)
		}
		return cli.Start(ctx, cfg, store, log)
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(targetCmd, mixesCmd, historyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trafficmix.yaml)")
	rootCmd.PersistentFlags().String("log-mode", "production", "Log mode: debug or production")
	rootCmd.PersistentFlags().String("history", "", "Run history database (default is $HOME/.trafficmix/history.db)")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record runs")

	f := rootCmd.Flags()
	f.StringP("url", "u", "http://localhost:8080", "Target base URL")
	f.StringP("mix", "m", "standard", "Built-in traffic mix ("+strings.Join(scenario.Names(), ", ")+")")
	f.String("mix-file", "", "Custom traffic mix (YAML or JSON), overrides --mix")
	f.IntP("users", "U", 10, "Number of simulated users")
	f.Float64P("spawn-rate", "r", 1, "Users started per second (0 starts all at once)")
	f.DurationP("duration", "d", 0, "Run duration (0 runs until interrupted)")
	f.Duration("min-wait", 0, "Override the mix's minimum wait between requests")
	f.Duration("max-wait", 0, "Override the mix's maximum wait between requests")
	f.Int("timeout", 10, "Request timeout in seconds")
	f.Int64("seed", 0, "Random seed (0 picks one and prints it)")
	f.StringSliceP("header", "H", []string{}, "HTTP header, templated (e.g. \"X-Request-ID: {{uuid}}\")")
	f.StringP("out", "o", "", "Output filename prefix for CSV/JSON reports")
	f.Bool("tui", false, "Show the live dashboard instead of the progress line")

	bindFlags()
}

func bindFlags() {
	viper.BindPFlags(rootCmd.Flags())
	viper.BindPFlag("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))
	viper.BindPFlag("history.path", rootCmd.PersistentFlags().Lookup("history"))
	viper.BindPFlag("history.disabled", rootCmd.PersistentFlags().Lookup("no-history"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".trafficmix")
		}
	}
	viper.SetEnvPrefix("TRAFFICMIX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// buildConfig resolves the run configuration from flags, env and config file.
func buildConfig() (runner.Config, error) {
	var (
		mix scenario.Mix
		err error
	)
	if path := viper.GetString("mix-file"); path != "" {
		mix, err = scenario.LoadFile(path)
	} else {
		mix, err = scenario.Lookup(viper.GetString("mix"))
	}
	if err != nil {
		return runner.Config{}, err
	}

	// IsSet so that an explicit zero still overrides the mix
	if viper.IsSet("min-wait") {
		mix.Pacing.Min = viper.GetDuration("min-wait")
	}
	if viper.IsSet("max-wait") {
		mix.Pacing.Max = viper.GetDuration("max-wait")
	}
	if err := mix.Validate(); err != nil {
		return runner.Config{}, err
	}

	headers, err := parseHeaders(viper.GetStringSlice("header"))
	if err != nil {
		return runner.Config{}, err
	}

	return runner.Config{
		URL:        viper.GetString("url"),
		Mix:        mix,
		NumUsers:   viper.GetInt("users"),
		SpawnRate:  viper.GetFloat64("spawn-rate"),
		Duration:   viper.GetDuration("duration"),
		TimeoutSec: viper.GetInt("timeout"),
		Seed:       viper.GetInt64("seed"),
		Headers:    headers,
		OutPrefix:  viper.GetString("out"),
	}, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Key: Value\"", h)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

// openHistory returns nil when history is disabled or unavailable; a run
// never fails because its history cannot be written.
func openHistory(log *zap.Logger) *storage.Store {
	if viper.GetBool("history.disabled") {
		return nil
	}
	path := viper.GetString("history.path")
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			log.Warn("run history disabled", zap.Error(err))
			return nil
		}
	}
	store, err := storage.Open(path)
	if err != nil {
		log.Warn("run history disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return store
}

func runTUI(ctx context.Context, cfg runner.Config, store *storage.Store, log *zap.Logger) error {
	updates := make(runner.StatsUpdateChan, 100)
	r, err := runner.NewRunner(cfg, updates, log)
	if err != nil {
		return err
	}

	m := tui.NewModel(ctx, r, updates)
	m.Start()
	final, progErr := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	// the program returns as soon as ctx is cancelled; the runner may still
	// be unwinding, so wait for it before reading its stats
	m.Stop()
	runErr := m.Wait()

	if progErr != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", progErr)
	}
	if runErr != nil {
		return runErr
	}

	// final is nil when the program was killed by a signal
	elapsed := time.Since(m.StartTime)
	if fm, ok := final.(tui.Model); ok {
		elapsed = fm.Elapsed
	}

	summary := report.Build(r.Cfg, r.Stats, elapsed)
	if err := report.WriteTable(os.Stdout, summary); err != nil {
		return err
	}
	if store != nil {
		if err := store.Save(summary); err != nil {
			log.Warn("failed to save run history", zap.Error(err))
		}
	}
	if cfg.OutPrefix != "" {
		return report.ExportAll(cfg.OutPrefix, r.ResultsCopy(), summary)
	}
	return nil
}
