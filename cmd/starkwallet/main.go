// StarkWallet - L2 trading-account onboarding CLI
// License: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stridetrade/starkwallet/pkg/config"
	"github.com/stridetrade/starkwallet/pkg/logger"
)

var (
	cfg     *config.Config
	cfgPath string
)

func getConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".starkwallet", "config.json")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "starkwallet",
		Short: "Deterministic L2 wallet onboarding for the exchange",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(getConfigPath())
			if err != nil {
				return err
			}
			if cfg.Log.JSON {
				logger.SetJSONOutput()
			}
			logger.SetLevel(cfg.Log.Level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.json")

	rootCmd.AddCommand(newWalletCmd())
	rootCmd.AddCommand(newOnboardCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newMockServerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
