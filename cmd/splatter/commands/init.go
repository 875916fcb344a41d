package commands

import (
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter splatter.yml",
	Long: `Write a starter configuration to the --config path (default: splatter.yml).

The --network, --redis and --account flags are written into the file.

Use --force to replace an existing configuration.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	opts := scaffold.Options{
		Network:  networkFlag,
		RedisURL: redisURLFlag,
		Account:  accountFlag,
	}

	if forceInit {
		if scaffold.CheckExisting(configPath) != nil {
			printer.Warning("Replacing existing %s\n", configPath)
		}
	}

	if err := scaffold.Initialize(configPath, opts, forceInit); err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	printer.Success("Created %s\n", configPath)
	printer.Println("\nNext steps:")
	printer.Println("  1. Start Redis, or point redis_url at an existing server")
	printer.Println("  2. Run 'splatter new' to start the first canvas")
	printer.Println("  3. Run 'splatter serve --paint' to paint in a browser")
	return nil
}
