package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for generated mnemonics (24 words).
const MnemonicEntropyBits = 256

// ErrInvalidMnemonic is returned when a phrase fails the BIP-39
// word-list or checksum check.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// DerivationPath is a sequence of BIP-32 child indices. Indices at or
// above hdkeychain.HardenedKeyStart are hardened.
type DerivationPath []uint32

// StarkPath returns the fixed derivation path for the L2 signing key of
// one account: m/44'/9004'/{accountIndex}'/0/0 (9004 is the SLIP-44
// coin type for Starknet).
func StarkPath(accountIndex uint32) DerivationPath {
	h := uint32(hdkeychain.HardenedKeyStart)
	return DerivationPath{h + 44, h + 9004, h + accountIndex, 0, 0}
}

// EthereumPath returns the standard Ethereum account path
// m/44'/60'/0'/0/{index}.
func EthereumPath(index uint32) DerivationPath {
	h := uint32(hdkeychain.HardenedKeyStart)
	return DerivationPath{h + 44, h + 60, h, 0, index}
}

// String renders the path in the usual m/44'/9004'/... notation.
func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		if idx >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&b, "/%d'", idx-hdkeychain.HardenedKeyStart)
		} else {
			fmt.Fprintf(&b, "/%d", idx)
		}
	}
	return b.String()
}

// GenerateMnemonic creates a fresh 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks word-list membership and checksum. Pure.
func ValidateMnemonic(phrase string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(phrase))
}

// DeriveRawKey stretches the mnemonic (plus optional passphrase) into a
// BIP-39 seed and walks the given path to the terminal node's 32-byte
// private scalar. Identical inputs always produce identical output.
func DeriveRawKey(phrase, passphrase string, path DerivationPath) ([]byte, error) {
	phrase = strings.TrimSpace(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(phrase, passphrase)

	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to build master key: %w", err)
	}
	for _, idx := range path {
		node, err = node.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", idx, err)
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	return priv.Serialize(), nil
}
