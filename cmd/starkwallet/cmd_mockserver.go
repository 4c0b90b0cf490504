// StarkWallet - L2 trading-account onboarding CLI
// License: MIT

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stridetrade/starkwallet/pkg/logger"
	"github.com/stridetrade/starkwallet/pkg/onboarding"
)

// newMockServerCmd serves the three exchange endpoints locally so the
// full onboarding flow can be exercised without a real exchange.
func newMockServerCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "mockserver",
		Short: "Run a local mock of the exchange registration API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var nextAccountID atomic.Int64
			nextAccountID.Store(1000)

			mux := http.NewServeMux()

			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"status":  "ok",
					"service": "starkwallet-mock",
				})
			})

			mux.HandleFunc(onboarding.OnboardPath, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
					return
				}
				var payload onboarding.OnboardingPayload
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					logger.WarnC("mockserver", "Invalid JSON in onboard request")
					http.Error(w, "Invalid JSON", http.StatusBadRequest)
					return
				}
				if payload.L1Signature == "" || payload.L2Key == "" {
					logger.WarnC("mockserver", "Missing signatures in onboard request")
					http.Error(w, "Missing signatures", http.StatusBadRequest)
					return
				}
				id := nextAccountID.Add(1)
				logger.InfoCF("mockserver", "Onboard request", map[string]any{
					"accountId":    id,
					"accountIndex": payload.AccountCreation.AccountIndex,
					"wallet":       payload.AccountCreation.Wallet,
				})
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"data": onboarding.AccountDescriptor{
						ID:           id,
						L2VaultID:    id * 10,
						AccountIndex: payload.AccountCreation.AccountIndex,
						Status:       "ACTIVE",
					},
				})
			})

			mux.HandleFunc(onboarding.APIKeyPath, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
					return
				}
				if r.Header.Get("L1_SIGNATURE") == "" || r.Header.Get("L1_MESSAGE_TIME") == "" {
					logger.WarnC("mockserver", "Missing auth headers in api-key request")
					http.Error(w, "Missing auth headers", http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"data": map[string]string{"key": uuid.NewString()},
				})
			})

			mux.HandleFunc(onboarding.AccountsPath, func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("L1_SIGNATURE") == "" {
					http.Error(w, "Missing auth headers", http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"data": []onboarding.AccountDescriptor{
						{ID: 1001, L2VaultID: 10010, AccountIndex: 0, Status: "ACTIVE"},
					},
				})
			})

			addr := fmt.Sprintf(":%d", port)
			logger.InfoCF("mockserver", "Listening", map[string]any{"addr": addr})
			return http.ListenAndServe(addr, mux)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8787, "listen port")
	return cmd
}
