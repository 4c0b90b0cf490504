package onboarding

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stridetrade/starkwallet/pkg/keys"
	"github.com/stridetrade/starkwallet/pkg/logger"
	"github.com/stridetrade/starkwallet/pkg/signing"
	"github.com/stridetrade/starkwallet/pkg/store"
)

// registrationAction is the fixed protocol action the exchange
// expects inside the signed registration message.
const registrationAction = "REGISTER"

// Config carries the fixed protocol constants for one exchange
// environment.
type Config struct {
	// Host is the exchange host embedded in the registration message.
	Host string
	// SigningDomain is the EIP-712 domain name the server verifies
	// against.
	SigningDomain string
	// AccountClassHash identifies the L2 account contract template
	// used for address computation.
	AccountClassHash *big.Int
	// ReferralCode, when set, rides along on the onboarding payload.
	ReferralCode string
}

// OnboardParams are the caller-supplied inputs for a single onboarding
// attempt. AccountIndex selection beyond 0 is entirely the caller's
// choice; there is no auto-increment.
type OnboardParams struct {
	Mnemonic          string
	Passphrase        string
	AccountIndex      uint32
	L1Key             *ecdsa.PrivateKey
	APIKeyDescription string
	SocialMetadata    string
}

// Orchestrator sequences key derivation, payload signing and the
// network protocol into the full account-activation flow. One
// orchestrator runs one flow at a time; concurrent use is the
// caller's responsibility to prevent.
type Orchestrator struct {
	api   ExchangeAPI
	creds *store.CredentialStore
	cfg   Config
	state Stage
}

// NewOrchestrator builds an orchestrator with injected collaborators.
// creds may be nil when the caller manages persistence itself.
func NewOrchestrator(api ExchangeAPI, creds *store.CredentialStore, cfg Config) *Orchestrator {
	return &Orchestrator{
		api:   api,
		creds: creds,
		cfg:   cfg,
		state: StageIdle,
	}
}

// State reports the stage the last (or current) flow reached.
func (o *Orchestrator) State() Stage { return o.state }

func (o *Orchestrator) fail(stage Stage, cause error) error {
	o.state = StageFailed
	return &FlowError{Stage: stage, Err: cause}
}

// Onboard runs the activation protocol once:
// derive L2 keys, build and sign the registration payload, submit it,
// mint a trading API key, then persist the credential bundle. No
// intermediate state is persisted before completion, so an interrupted
// run leaves no partial wallet record. No stage retries automatically.
func (o *Orchestrator) Onboard(ctx context.Context, p OnboardParams) (*OnboardedAccount, error) {
	attemptID := uuid.NewString()
	logger.InfoCF("onboarding", "Onboarding started", map[string]any{
		"attempt":      attemptID,
		"accountIndex": p.AccountIndex,
	})

	// DerivingKeys
	o.state = StageDerivingKeys
	kp, err := keys.KeyPairFromMnemonic(p.Mnemonic, p.Passphrase, p.AccountIndex)
	if err != nil {
		return nil, o.fail(StageDerivingKeys, &KeyDerivationError{Err: err})
	}
	l2Address := keys.ComputeAddress(o.cfg.AccountClassHash, kp.Public(), kp.Public(), nil)
	l1Address := crypto.PubkeyToAddress(p.L1Key.PublicKey)

	// BuildingPayload
	o.state = StageBuildingPayload
	reg := signing.AccountRegistration{
		AccountIndex: int(p.AccountIndex),
		Wallet:       l1Address.Hex(),
		TosAccepted:  true,
		Time:         time.Now().UTC().Format(time.RFC3339),
		Action:       registrationAction,
		Host:         o.cfg.Host,
	}
	l1Sig, err := signing.SignTypedData(signing.RegistrationTypedData(o.cfg.SigningDomain, reg), p.L1Key)
	if err != nil {
		return nil, o.fail(StageBuildingPayload, &SigningError{Err: err})
	}
	msgHash := signing.RegistrationMessageHash(l1Address, kp.Public())
	l2Sig, err := signing.SignStark(msgHash, kp.Private())
	if err != nil {
		return nil, o.fail(StageBuildingPayload, &SigningError{Err: err})
	}

	payload := &OnboardingPayload{
		L1Signature:     l1Sig,
		L2Key:           kp.PublicHex(),
		L2Signature:     StarkSignatureHex{R: l2Sig.RHex(), S: l2Sig.SHex()},
		AccountCreation: reg,
		ReferralCode:    o.cfg.ReferralCode,
	}

	// Submitting
	o.state = StageSubmitting
	desc, err := o.api.Onboard(ctx, payload)
	if err != nil {
		return nil, o.fail(StageSubmitting, err)
	}
	logger.InfoCF("onboarding", "Account registered", map[string]any{
		"attempt":   attemptID,
		"accountId": desc.ID,
		"vaultId":   desc.L2VaultID,
	})

	// CreatingApiKey
	o.state = StageCreatingAPIKey
	description := p.APIKeyDescription
	if description == "" {
		description = "starkwallet-" + attemptID[:8]
	}
	auth, err := o.authFor(APIKeyPath, p.L1Key, desc.ID)
	if err != nil {
		return nil, o.fail(StageCreatingAPIKey, &APIKeyCreationError{Err: err})
	}
	apiKey, err := o.api.CreateAPIKey(ctx, auth, description)
	if err != nil {
		return nil, o.fail(StageCreatingAPIKey, err)
	}

	// Completed
	o.state = StageCompleted
	if o.creds != nil {
		err := o.creds.Store(store.Bundle{
			PrivateKeyHex:  kp.PrivateHex(),
			AddressHex:     keys.AddressHex(l2Address),
			AccountType:    "hd",
			Mnemonic:       p.Mnemonic,
			SocialMetadata: p.SocialMetadata,
		})
		if err != nil {
			return nil, o.fail(StageCompleted, &StorageError{Err: err})
		}
	}

	logger.InfoCF("onboarding", "Onboarding completed", map[string]any{
		"attempt":   attemptID,
		"accountId": desc.ID,
	})
	return &OnboardedAccount{
		Account:       *desc,
		KeyPair:       kp,
		TradingAPIKey: apiKey,
	}, nil
}

// GetExistingAccounts lists the server-side accounts and re-derives
// each L2 key pair locally; the server's data is never trusted to
// supply key material. Per-account derivation failures are logged and
// skipped, so the call returns whatever subset succeeded.
func (o *Orchestrator) GetExistingAccounts(ctx context.Context, mnemonic, passphrase string, l1Key *ecdsa.PrivateKey) ([]*OnboardedAccount, error) {
	auth, err := o.authFor(AccountsPath, l1Key, 0)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	descs, err := o.api.ListAccounts(ctx, auth)
	if err != nil {
		return nil, err
	}

	accounts := make([]*OnboardedAccount, 0, len(descs))
	for _, desc := range descs {
		if desc.AccountIndex < 0 {
			logger.WarnCF("onboarding", "Skipping account with invalid index", map[string]any{
				"accountId":    desc.ID,
				"accountIndex": desc.AccountIndex,
			})
			continue
		}
		kp, err := keys.KeyPairFromMnemonic(mnemonic, passphrase, uint32(desc.AccountIndex))
		if err != nil {
			logger.WarnCF("onboarding", "Skipping account, key derivation failed", map[string]any{
				"accountId":    desc.ID,
				"accountIndex": desc.AccountIndex,
				"error":        err.Error(),
			})
			continue
		}
		accounts = append(accounts, &OnboardedAccount{
			Account: desc,
			KeyPair: kp,
		})
	}
	return accounts, nil
}

// authFor builds a fresh request-auth header set: a new timestamp and
// a new signature per call, never reused.
func (o *Orchestrator) authFor(path string, l1Key *ecdsa.PrivateKey, accountID int64) (AuthHeaders, error) {
	ts := time.Now().Unix()
	message := fmt.Sprintf("%s@%d", path, ts)
	sig, err := signing.SignTypedData(signing.AuthTypedData(o.cfg.SigningDomain, message), l1Key)
	if err != nil {
		return AuthHeaders{}, err
	}
	return AuthHeaders{Signature: sig, Timestamp: ts, AccountID: accountID}, nil
}
