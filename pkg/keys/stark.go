package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet.go/curve"
)

// ErrKeyOutOfRange is returned when a derived scalar is zero or not
// below the Stark curve's scalar-field order. Such a scalar must never
// be reduced or truncated into range silently.
var ErrKeyOutOfRange = errors.New("derived key outside the curve scalar field")

// StarkKeyPair is an L2 signing key pair. Immutable once derived.
type StarkKeyPair struct {
	private *big.Int
	public  *big.Int
}

// ScalarFromBytes interprets b as a big-endian integer and checks the
// scalar-field invariant 0 < k < order. The check runs on every
// derivation before the key is used for anything.
func ScalarFromBytes(b []byte) (*big.Int, error) {
	k := new(big.Int).SetBytes(b)
	if k.Sign() == 0 || k.Cmp(curve.Curve.N) >= 0 {
		return nil, ErrKeyOutOfRange
	}
	return k, nil
}

// KeyPairFromScalar computes the public curve point for a private
// scalar. The scalar must already satisfy the field invariant.
func KeyPairFromScalar(private *big.Int) (*StarkKeyPair, error) {
	if private.Sign() <= 0 || private.Cmp(curve.Curve.N) >= 0 {
		return nil, ErrKeyOutOfRange
	}
	x, _, err := curve.Curve.PrivateToPoint(private)
	if err != nil {
		return nil, fmt.Errorf("failed to compute public key: %w", err)
	}
	return &StarkKeyPair{
		private: new(big.Int).Set(private),
		public:  x,
	}, nil
}

// grindKey maps a uniform 256-bit seed into the curve scalar field
// without modulo bias, per EIP-2645: candidates are sha256(seed || ctr)
// and any candidate at or above the largest multiple of the order below
// 2^256 is rejected before the final reduction. The raw BIP-32 output
// exceeds the ~2^251 order for most seeds, so this step is what makes
// derivation total over the mnemonic space.
func grindKey(seed []byte) *big.Int {
	bound := new(big.Int).Lsh(big.NewInt(1), 256)
	bound.Sub(bound, new(big.Int).Mod(bound, curve.Curve.N))

	buf := make([]byte, len(seed)+1)
	copy(buf, seed)
	for i := 0; ; i++ {
		buf[len(seed)] = byte(i)
		sum := sha256.Sum256(buf)
		k := new(big.Int).SetBytes(sum[:])
		if k.Cmp(bound) < 0 {
			return k.Mod(k, curve.Curve.N)
		}
	}
}

// KeyPairFromMnemonic derives the L2 key pair for one account index:
// BIP-39 stretch, fixed Stark path walk, key grinding into the scalar
// field, the field check, then scalar multiplication.
func KeyPairFromMnemonic(phrase, passphrase string, accountIndex uint32) (*StarkKeyPair, error) {
	raw, err := DeriveRawKey(phrase, passphrase, StarkPath(accountIndex))
	if err != nil {
		return nil, err
	}
	scalar, err := ScalarFromBytes(grindKey(raw).Bytes())
	if err != nil {
		return nil, err
	}
	return KeyPairFromScalar(scalar)
}

// Private returns a copy of the private scalar.
func (kp *StarkKeyPair) Private() *big.Int {
	return new(big.Int).Set(kp.private)
}

// Public returns the x-coordinate of the public curve point.
func (kp *StarkKeyPair) Public() *big.Int {
	return new(big.Int).Set(kp.public)
}

// PublicHex returns the canonical 0x-prefixed, 64-digit hex encoding of
// the public key.
func (kp *StarkKeyPair) PublicHex() string {
	return fmt.Sprintf("0x%064x", kp.public)
}

// PrivateHex returns the 0x-prefixed hex encoding of the private
// scalar. Callers must treat the value as a secret.
func (kp *StarkKeyPair) PrivateHex() string {
	return fmt.Sprintf("0x%064x", kp.private)
}
