package commands

import (
	"fmt"

	"github.com/dyluth/splatter/internal/config"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	configPath   string
	redisURLFlag string
	networkFlag  string
	accountFlag  string
	canvasFlag   uint64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "splatter",
	Short: "Splatter - collaborative 16×16 pixel canvases",
	Long: `Splatter is a shared pixel canvas backed by a ledger.

Everyone paints the same 16×16 canvas with a 4096-color palette. Pixels are
painted locally, then committed to the ledger in one transaction. Once the
lock window has passed, anyone can lock the canvas under a title; the next
canvas can only be started after that.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to splatter.yml")
	flags.StringVar(&redisURLFlag, "redis", "", "Ledger Redis URL (overrides config and REDIS_URL)")
	flags.StringVar(&networkFlag, "network", "", "Ledger network name (overrides config)")
	flags.StringVar(&accountFlag, "account", "", "Sender address for commit, lock and new")
	flags.Uint64Var(&canvasFlag, "canvas", 0, "Canvas id (default: config canvas_id, else the newest canvas)")
}
