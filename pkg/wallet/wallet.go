package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stridetrade/starkwallet/pkg/keys"
	"github.com/stridetrade/starkwallet/pkg/logger"
)

// WalletService manages the L1 (Ethereum) wallet secret: an encrypted
// keystore unlocked by PIN, created fresh or imported from a BIP-39
// mnemonic. The private key leaves the keystore only through
// PrivateKey, for the duration of a signing operation.
type WalletService struct {
	walletDir string
	keystore  *keystore.KeyStore
}

// NewWalletService creates a wallet service rooted at dir.
func NewWalletService(dir string) *WalletService {
	walletDir := filepath.Join(dir, "wallet")
	os.MkdirAll(walletDir, 0o700)

	ks := keystore.NewKeyStore(walletDir, keystore.StandardScryptN, keystore.StandardScryptP)

	return &WalletService{
		walletDir: walletDir,
		keystore:  ks,
	}
}

// WalletExists reports whether an L1 wallet has been created.
func (ws *WalletService) WalletExists() bool {
	return len(ws.keystore.Accounts()) > 0
}

// CreateWallet generates a fresh mnemonic, derives the Ethereum key at
// m/44'/60'/0'/0/0 and stores it PIN-encrypted. The mnemonic is
// returned once for backup and not kept here.
func (ws *WalletService) CreateWallet(pin string) (common.Address, string, error) {
	if ws.WalletExists() {
		return common.Address{}, "", ErrWalletAlreadyExists
	}
	if !ValidatePIN(pin) {
		return common.Address{}, "", ErrInvalidPINFormat
	}

	mnemonic, err := keys.GenerateMnemonic()
	if err != nil {
		return common.Address{}, "", err
	}

	addr, err := ws.importMnemonic(mnemonic, pin, false)
	if err != nil {
		return common.Address{}, "", err
	}
	return addr, mnemonic, nil
}

// ImportMnemonic derives the Ethereum key from an existing mnemonic
// and stores it PIN-encrypted.
func (ws *WalletService) ImportMnemonic(mnemonic, pin string) (common.Address, error) {
	if ws.WalletExists() {
		return common.Address{}, ErrWalletAlreadyExists
	}
	if !ValidatePIN(pin) {
		return common.Address{}, ErrInvalidPINFormat
	}
	return ws.importMnemonic(mnemonic, pin, true)
}

func (ws *WalletService) importMnemonic(mnemonic, pin string, fromImport bool) (common.Address, error) {
	raw, err := keys.DeriveRawKey(mnemonic, "", keys.EthereumPath(0))
	if err != nil {
		return common.Address{}, err
	}
	defer clear(raw)

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return common.Address{}, err
	}

	account, err := ws.keystore.ImportECDSA(key, pin)
	if err != nil {
		return common.Address{}, ErrKeystoreFailed
	}

	ws.writeInfo(WalletInfo{
		Address:     account.Address,
		CreatedAt:   time.Now(),
		HasMnemonic: true,
		FromImport:  fromImport,
	})

	logger.InfoCF("wallet", "Wallet ready", map[string]any{
		"address": account.Address.Hex(),
	})
	return account.Address, nil
}

func (ws *WalletService) writeInfo(info WalletInfo) {
	infoFile := filepath.Join(ws.walletDir, "wallet.json")
	infoJSON, _ := json.MarshalIndent(info, "", "  ")
	if err := os.WriteFile(infoFile, infoJSON, 0o600); err != nil {
		logger.WarnCF("wallet", "Failed to write wallet info", map[string]any{
			"error": err.Error(),
		})
	}
}

// GetAddress returns the wallet address.
func (ws *WalletService) GetAddress() (common.Address, error) {
	accts := ws.keystore.Accounts()
	if len(accts) == 0 {
		return common.Address{}, ErrWalletNotCreated
	}
	return accts[0].Address, nil
}

// Unlock unlocks the wallet with the PIN.
func (ws *WalletService) Unlock(pin string) error {
	accts := ws.keystore.Accounts()
	if len(accts) == 0 {
		return ErrWalletNotCreated
	}
	if err := ws.keystore.Unlock(accts[0], pin); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// Lock locks the wallet.
func (ws *WalletService) Lock() error {
	accts := ws.keystore.Accounts()
	if len(accts) == 0 {
		return ErrWalletNotCreated
	}
	return ws.keystore.Lock(accts[0].Address)
}

// PrivateKey decrypts and returns the L1 private key for signing. The
// caller must discard the key as soon as the signature is produced.
func (ws *WalletService) PrivateKey(pin string) (*ecdsa.PrivateKey, error) {
	accts := ws.keystore.Accounts()
	if len(accts) == 0 {
		return nil, ErrWalletNotCreated
	}

	keyJSON, err := ws.keystore.Export(accts[0], pin, pin)
	if err != nil {
		return nil, ErrInvalidPIN
	}
	key, err := keystore.DecryptKey(keyJSON, pin)
	if err != nil {
		return nil, ErrInvalidPIN
	}
	return key.PrivateKey, nil
}
