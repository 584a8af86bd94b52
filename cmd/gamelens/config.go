package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/gamelens/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying the config file and environment
overrides. The configuration is validated first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return report.WriteJSON(os.Stdout, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
