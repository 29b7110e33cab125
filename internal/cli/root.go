package cli

import (
	"fmt"
	"os"
	"time"

	"depthcapture/internal/client"
	"depthcapture/internal/config"
	"depthcapture/internal/logger"

	"github.com/spf13/cobra"
)

// env holds what every subcommand needs, built before the command runs.
type env struct {
	cfg    *config.Config
	logger *logger.Logger
	client *client.Client
}

var app env

// Flags
var (
	serviceURL string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "capturectl",
	Short: "Capture still frames from the depth camera stream",
	Long: `capturectl captures still frames from a live depth camera stream and
persists them through the image capture service, falling back to a local
downloads directory when the service is unreachable.

It also lists, uploads and watches stored captures.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("service") {
			cfg.ServiceURL = serviceURL
		}

		level := cfg.LogLevel
		if verbose {
			level = "DEBUG"
		}

		app = env{
			cfg:    cfg,
			logger: logger.NewConsoleLogger(os.Stderr, level),
			client: client.New(cfg.ServiceURL, time.Duration(cfg.CaptureTimeout)*time.Second),
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "Capture service URL (overrides SERVICE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
