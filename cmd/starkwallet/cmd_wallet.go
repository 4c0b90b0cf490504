// StarkWallet - L2 trading-account onboarding CLI
// License: MIT

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stridetrade/starkwallet/pkg/store"
	"github.com/stridetrade/starkwallet/pkg/wallet"
)

func credentialStore(pin string) (*store.CredentialStore, error) {
	path := filepath.Join(cfg.Wallet.Dir, "credentials.json")
	fs, err := store.OpenFileStore(path, []byte(pin))
	if err != nil {
		return nil, err
	}
	return store.NewCredentialStore(fs), nil
}

func newWalletCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the L1 wallet secret",
	}
	cmd.PersistentFlags().StringVar(&pin, "pin", "", "wallet PIN (4-8 digits)")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a fresh wallet from a new mnemonic",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := wallet.NewWalletService(cfg.Wallet.Dir)
			addr, mnemonic, err := ws.CreateWallet(pin)
			if err != nil {
				return err
			}
			fmt.Printf("Address:  %s\n", addr.Hex())
			fmt.Printf("Mnemonic: %s\n", mnemonic)
			fmt.Println("\nWrite the mnemonic down. It is shown only once and is")
			fmt.Println("required to onboard and to recover the wallet.")
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <mnemonic>",
		Short: "Import a wallet from an existing mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := wallet.NewWalletService(cfg.Wallet.Dir)
			addr, err := ws.ImportMnemonic(args[0], pin)
			if err != nil {
				return err
			}
			fmt.Printf("Address: %s\n", addr.Hex())
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored wallet record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := wallet.NewWalletService(cfg.Wallet.Dir)
			addr, err := ws.GetAddress()
			if err != nil {
				return err
			}
			fmt.Printf("L1 address: %s\n", addr.Hex())

			if pin == "" {
				return nil
			}
			creds, err := credentialStore(pin)
			if err != nil {
				return err
			}
			bundle, err := creds.Read()
			if err != nil {
				return err
			}
			if bundle == nil {
				fmt.Println("No onboarded account record.")
				return nil
			}
			fmt.Printf("L2 address:   %s\n", bundle.AddressHex)
			fmt.Printf("Account type: %s\n", bundle.AccountType)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored credential bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentialStore(pin)
			if err != nil {
				return err
			}
			creds.Clear()
			fmt.Println("Credential bundle cleared.")
			return nil
		},
	}

	cmd.AddCommand(createCmd, importCmd, showCmd, clearCmd)
	return cmd
}
