// StarkWallet - L2 trading-account onboarding CLI
// License: MIT

package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stridetrade/starkwallet/pkg/onboarding"
	"github.com/stridetrade/starkwallet/pkg/wallet"
)

func parseClassHash(s string) (*big.Int, error) {
	h, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("invalid account class hash: %q", s)
	}
	return h, nil
}

func orchestratorConfig() (onboarding.Config, error) {
	classHash, err := parseClassHash(cfg.Exchange.AccountClassHash)
	if err != nil {
		return onboarding.Config{}, err
	}
	return onboarding.Config{
		Host:             cfg.Exchange.Host,
		SigningDomain:    cfg.Exchange.SigningDomain,
		AccountClassHash: classHash,
		ReferralCode:     cfg.Exchange.ReferralCode,
	}, nil
}

func newOnboardCmd() *cobra.Command {
	var (
		pin          string
		mnemonic     string
		accountIndex uint32
		description  string
	)

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Activate a trading account and mint an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := wallet.NewWalletService(cfg.Wallet.Dir)
			l1Key, err := ws.PrivateKey(pin)
			if err != nil {
				return err
			}

			if mnemonic == "" {
				return fmt.Errorf("--mnemonic is required")
			}

			ocfg, err := orchestratorConfig()
			if err != nil {
				return err
			}
			creds, err := credentialStore(pin)
			if err != nil {
				return err
			}

			client := onboarding.NewClient(cfg.Exchange.BaseURL, time.Duration(cfg.Exchange.TimeoutSeconds)*time.Second)
			orch := onboarding.NewOrchestrator(client, creds, ocfg)

			account, err := orch.Onboard(context.Background(), onboarding.OnboardParams{
				Mnemonic:          mnemonic,
				AccountIndex:      accountIndex,
				L1Key:             l1Key,
				APIKeyDescription: description,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Account ID:  %d\n", account.Account.ID)
			fmt.Printf("Vault ID:    %d\n", account.Account.L2VaultID)
			fmt.Printf("L2 key:      %s\n", account.KeyPair.PublicHex())
			fmt.Printf("API key:     %s\n", account.TradingAPIKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "wallet PIN")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 mnemonic the L2 key is derived from")
	cmd.Flags().Uint32Var(&accountIndex, "account-index", 0, "account index to derive")
	cmd.Flags().StringVar(&description, "description", "", "API key description")
	return cmd
}

func newAccountsCmd() *cobra.Command {
	var (
		pin      string
		mnemonic string
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List onboarded accounts with locally re-derived keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := wallet.NewWalletService(cfg.Wallet.Dir)
			l1Key, err := ws.PrivateKey(pin)
			if err != nil {
				return err
			}

			if mnemonic == "" {
				// fall back to the stored bundle
				creds, err := credentialStore(pin)
				if err != nil {
					return err
				}
				bundle, err := creds.Read()
				if err != nil {
					return err
				}
				if bundle == nil || bundle.Mnemonic == "" {
					return fmt.Errorf("no stored mnemonic; pass --mnemonic")
				}
				mnemonic = bundle.Mnemonic
			}

			ocfg, err := orchestratorConfig()
			if err != nil {
				return err
			}
			client := onboarding.NewClient(cfg.Exchange.BaseURL, time.Duration(cfg.Exchange.TimeoutSeconds)*time.Second)
			orch := onboarding.NewOrchestrator(client, nil, ocfg)

			accounts, err := orch.GetExistingAccounts(context.Background(), mnemonic, "", l1Key)
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				fmt.Println("No accounts.")
				return nil
			}
			for _, a := range accounts {
				fmt.Printf("account %d  index %d  vault %d  l2 %s\n",
					a.Account.ID, a.Account.AccountIndex, a.Account.L2VaultID, a.KeyPair.PublicHex())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "wallet PIN")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 mnemonic (defaults to the stored bundle)")
	return cmd
}
