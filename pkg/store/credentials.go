package store

import (
	"fmt"

	"github.com/stridetrade/starkwallet/pkg/logger"
)

// Storage keys for the credential bundle. Required keys must all be
// present for a read to report a wallet; optional ones may be absent.
const (
	keyPrivateKey  = "wallet.private_key"
	keyAddress     = "wallet.address"
	keyAccountType = "wallet.account_type"
	keyMnemonic    = "wallet.mnemonic"
	keySocialMeta  = "wallet.social_metadata"
)

// Bundle is the persisted wallet record. PrivateKeyHex, AddressHex and
// AccountType are required; Mnemonic and SocialMetadata are optional.
type Bundle struct {
	PrivateKeyHex  string
	AddressHex     string
	AccountType    string
	Mnemonic       string
	SocialMetadata string
}

// CredentialStore persists the wallet secret bundle on top of a
// string-keyed KeyValueStore. Writes are sequential, not atomic as a
// group; the compensating rule is that a read missing any required
// field reports no wallet at all.
type CredentialStore struct {
	kv KeyValueStore
}

// NewCredentialStore wraps a key-value store.
func NewCredentialStore(kv KeyValueStore) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Store writes the bundle. Required fields are written first so that a
// crash mid-sequence can only lose optional metadata. Optional
// metadata failures are logged, not surfaced.
func (cs *CredentialStore) Store(b Bundle) error {
	if b.PrivateKeyHex == "" || b.AddressHex == "" || b.AccountType == "" {
		return fmt.Errorf("credential bundle missing required fields")
	}

	if err := cs.kv.Set(keyPrivateKey, b.PrivateKeyHex); err != nil {
		return fmt.Errorf("failed to store private key: %w", err)
	}
	if err := cs.kv.Set(keyAddress, b.AddressHex); err != nil {
		return fmt.Errorf("failed to store address: %w", err)
	}
	if err := cs.kv.Set(keyAccountType, b.AccountType); err != nil {
		return fmt.Errorf("failed to store account type: %w", err)
	}

	if b.Mnemonic != "" {
		if err := cs.kv.Set(keyMnemonic, b.Mnemonic); err != nil {
			logger.WarnCF("store", "Failed to store mnemonic", map[string]any{
				"error": err.Error(),
			})
		}
	}
	if b.SocialMetadata != "" {
		if err := cs.kv.Set(keySocialMeta, b.SocialMetadata); err != nil {
			logger.WarnCF("store", "Failed to store social metadata", map[string]any{
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Read returns the stored bundle, or (nil, nil) when no complete
// wallet record exists. A bundle missing any required field is treated
// as absent.
func (cs *CredentialStore) Read() (*Bundle, error) {
	priv, okPriv, err := cs.kv.Get(keyPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	addr, okAddr, err := cs.kv.Get(keyAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to read address: %w", err)
	}
	acctType, okType, err := cs.kv.Get(keyAccountType)
	if err != nil {
		return nil, fmt.Errorf("failed to read account type: %w", err)
	}

	if !okPriv || !okAddr || !okType || priv == "" || addr == "" || acctType == "" {
		return nil, nil
	}

	b := &Bundle{
		PrivateKeyHex: priv,
		AddressHex:    addr,
		AccountType:   acctType,
	}
	// optional fields: read errors degrade to absence
	if m, ok, err := cs.kv.Get(keyMnemonic); err == nil && ok {
		b.Mnemonic = m
	}
	if s, ok, err := cs.kv.Get(keySocialMeta); err == nil && ok {
		b.SocialMetadata = s
	}
	return b, nil
}

// Clear deletes every key including optional metadata. Best-effort:
// failures are logged and never surfaced, so logout cannot get stuck
// on a storage error.
func (cs *CredentialStore) Clear() {
	for _, key := range []string{keyPrivateKey, keyAddress, keyAccountType, keyMnemonic, keySocialMeta} {
		if err := cs.kv.Delete(key); err != nil {
			logger.WarnCF("store", "Failed to delete credential key", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}
