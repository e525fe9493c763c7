package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bossing/basket-service/config"
	"github.com/bossing/basket-service/internal/database"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "basket",
	Short: "Basket Service CLI - compare grocery baskets and import price lists",
	Long: `A CLI for the basket comparison service. It prices a shopping list at every
supermarket in a catalog, imports supermarket price lists (XLSX workbooks or
JSON feeds) into the catalog database, and checks database connectivity.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for commands given explicit inputs
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes the logger
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger(cmd.ErrOrStderr())
	log.Logger = *logger
	return nil
}

// initLogger logs to w so command output on stdout stays machine readable.
func initLogger(w io.Writer) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = w
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: w, NoColor: noColor}
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &l
}

// databaseURL returns the configured database URL, falling back to DATABASE_URL.
func databaseURL() string {
	if cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}

func poolConfig() (database.PoolConfig, error) {
	url := databaseURL()
	if url == "" {
		return database.PoolConfig{}, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg != nil {
		pc := cfg.Database.Pool()
		pc.URL = url
		return pc, nil
	}
	return database.PoolConfig{URL: url}, nil
}

func initDatabase(ctx context.Context) error {
	pc, err := poolConfig()
	if err != nil {
		return err
	}
	if err := database.Connect(ctx, pc); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info().Msg("Database connected")
	return nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
