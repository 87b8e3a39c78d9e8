// Command constituencies browses Zambia's parliamentary constituencies by
// province, and can serve the JSON API it reads from.
package main

import (
	"fmt"
	"os"
	"time"

	"constituencies/internal/api"
	"constituencies/internal/config"
	"constituencies/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiURL     string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "constituencies",
	Short: "Browse Zambian parliamentary constituencies by province",
	Long: `constituencies shows the provinces of Zambia and, for the chosen province,
its parliamentary constituencies with a live text filter.

Run without arguments to start the interactive browser. The "serve" command
runs the JSON API the browser talks to, scraping the National Assembly site.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			loaded.Client.BaseURL = apiURL
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		// The interactive browser owns the terminal.
		if isBrowse(cmd) {
			if err := logging.Initialize(cfg.Logging.TerminalOptions()); err != nil {
				return fmt.Errorf("failed to initialize category logging: %w", err)
			}
			logger = zap.NewNop()
			return nil
		}

		if err := logging.Initialize(cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize category logging: %w", err)
		}

		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runBrowse,
}

// isBrowse compares by name; referencing rootCmd here would be an
// initialization cycle.
func isBrowse(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "browse"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "constituencies.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (or set CONSTITUENCIES_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default: client.timeout from config)")

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(provincesCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds the API client from the loaded config and flags.
func newClient() *api.Client {
	d := timeout
	if d <= 0 {
		d = cfg.GetClientTimeout()
	}
	return api.NewClient(cfg.Client.BaseURL,
		api.WithTimeout(d),
		api.WithUserAgent(cfg.Client.UserAgent),
	)
}
