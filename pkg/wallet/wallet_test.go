package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stridetrade/starkwallet/pkg/keys"
)

func readWalletInfo(t *testing.T, dir string) WalletInfo {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "wallet", "wallet.json"))
	if err != nil {
		t.Fatalf("read wallet info: %v", err)
	}
	var info WalletInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("decode wallet info: %v", err)
	}
	return info
}

func TestValidatePIN(t *testing.T) {
	cases := []struct {
		pin  string
		want bool
	}{
		{"1234", true},
		{"000000", true},
		{"12345678", true},
		{"123", false},
		{"123456789", false},
		{"abcd", false},
		{"12 4", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidatePIN(c.pin); got != c.want {
			t.Errorf("ValidatePIN(%q) = %v, want %v", c.pin, got, c.want)
		}
	}
}

func TestGeneratePIN(t *testing.T) {
	pin, err := GeneratePIN()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !ValidatePIN(pin) {
		t.Errorf("generated PIN fails validation: %q", pin)
	}
}

func TestCreateWallet(t *testing.T) {
	ws := NewWalletService(t.TempDir())

	if ws.WalletExists() {
		t.Fatal("fresh dir reports an existing wallet")
	}

	addr, mnemonic, err := ws.CreateWallet("123456")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if addr == (common.Address{}) {
		t.Error("zero address")
	}
	if !keys.ValidateMnemonic(mnemonic) {
		t.Errorf("invalid mnemonic returned: %q", mnemonic)
	}
	if !ws.WalletExists() {
		t.Error("wallet not reported after creation")
	}

	if _, _, err := ws.CreateWallet("654321"); err != ErrWalletAlreadyExists {
		t.Errorf("second create: err = %v, want ErrWalletAlreadyExists", err)
	}
}

func TestCreateWalletRejectsBadPIN(t *testing.T) {
	ws := NewWalletService(t.TempDir())
	if _, _, err := ws.CreateWallet("12"); err != ErrInvalidPINFormat {
		t.Errorf("err = %v, want ErrInvalidPINFormat", err)
	}
}

func TestImportMnemonicDeterministicAddress(t *testing.T) {
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	a := NewWalletService(t.TempDir())
	addrA, err := a.ImportMnemonic(mnemonic, "123456")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	b := NewWalletService(t.TempDir())
	addrB, err := b.ImportMnemonic(mnemonic, "999999")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if addrA != addrB {
		t.Errorf("same mnemonic derived different addresses: %s vs %s", addrA.Hex(), addrB.Hex())
	}
}

func TestWalletInfoFromImport(t *testing.T) {
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	createdDir := t.TempDir()
	if _, _, err := NewWalletService(createdDir).CreateWallet("123456"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if info := readWalletInfo(t, createdDir); info.FromImport {
		t.Error("created wallet marked as imported")
	}

	importedDir := t.TempDir()
	if _, err := NewWalletService(importedDir).ImportMnemonic(mnemonic, "123456"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if info := readWalletInfo(t, importedDir); !info.FromImport {
		t.Error("imported wallet not marked as imported")
	}
}

func TestUnlockAndPrivateKey(t *testing.T) {
	ws := NewWalletService(t.TempDir())
	addr, _, err := ws.CreateWallet("123456")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ws.Unlock("000000"); err != ErrInvalidPIN {
		t.Errorf("wrong PIN: err = %v, want ErrInvalidPIN", err)
	}
	if err := ws.Unlock("123456"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ws.Lock()

	key, err := ws.PrivateKey("123456")
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	if got := crypto.PubkeyToAddress(key.PublicKey); got != addr {
		t.Errorf("exported key address %s does not match wallet %s", got.Hex(), addr.Hex())
	}

	if _, err := ws.PrivateKey("000000"); err != ErrInvalidPIN {
		t.Errorf("wrong PIN export: err = %v, want ErrInvalidPIN", err)
	}
}
