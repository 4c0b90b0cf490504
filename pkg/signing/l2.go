package signing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet.go/curve"
	"github.com/ethereum/go-ethereum/common"
)

// StarkSignature is an L2 curve signature.
type StarkSignature struct {
	R *big.Int
	S *big.Int
}

// RHex returns the 0x-prefixed hex encoding of r.
func (s *StarkSignature) RHex() string { return fmt.Sprintf("0x%x", s.R) }

// SHex returns the 0x-prefixed hex encoding of s.
func (s *StarkSignature) SHex() string { return fmt.Sprintf("0x%x", s.S) }

// RegistrationMessageHash is the Pedersen hash binding the L1 wallet
// address to the L2 public key. Both registration signatures commit to
// this pairing.
func RegistrationMessageHash(l1Address common.Address, l2Public *big.Int) *big.Int {
	addr := new(big.Int).SetBytes(l1Address.Bytes())
	return curve.HashPedersenElements([]*big.Int{addr, l2Public})
}

// SignStark signs a message field element with the L2 private scalar.
// Nonce selection is deterministic (RFC 6979 style), so signing the
// same message twice yields the same signature and two different
// messages never share a nonce.
func SignStark(msgHash, private *big.Int) (*StarkSignature, error) {
	if private == nil || private.Sign() <= 0 || private.Cmp(curve.Curve.N) >= 0 {
		return nil, errors.New("private key outside the curve scalar field")
	}

	r, s, err := curve.Curve.Sign(msgHash, private)
	if err != nil {
		return nil, fmt.Errorf("failed to produce stark signature: %w", err)
	}
	if r == nil || s == nil {
		return nil, errors.New("stark signature is incomplete")
	}

	return &StarkSignature{R: r, S: s}, nil
}

// VerifyStark checks an L2 signature against a public key
// x-coordinate. Used by tests and the enumeration path.
func VerifyStark(msgHash *big.Int, sig *StarkSignature, publicX *big.Int) bool {
	y := curve.Curve.GetYCoordinate(publicX)
	if y == nil {
		return false
	}
	if curve.Curve.Verify(msgHash, sig.R, sig.S, publicX, y) {
		return true
	}
	// the x-coordinate identifies the point only up to y-negation
	negY := new(big.Int).Sub(curve.Curve.P, y)
	return curve.Curve.Verify(msgHash, sig.R, sig.S, publicX, negY)
}
