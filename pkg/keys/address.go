package keys

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet.go/curve"
)

// contractAddressPrefix is the ASCII string "STARKNET_CONTRACT_ADDRESS"
// as a field element, the value the chain itself prepends when hashing
// deployed-account addresses.
var contractAddressPrefix = new(big.Int).SetBytes([]byte("STARKNET_CONTRACT_ADDRESS"))

// addressBound is 2^251 - 256. Addresses are reduced into this range,
// matching the chain's canonical formula.
var addressBound = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 251),
	big.NewInt(256),
)

// ComputeAddress returns the deterministic contract address for an
// account deployed with the given class hash, public key and salt.
// The constructor calldata hashed into the address is the public key
// followed by extraCalldata. Input ordering and the zero deployer
// match the chain specification, so the result is independently
// verifiable on-chain. Pure: no randomness, no I/O.
func ComputeAddress(classHash, publicKey, salt *big.Int, extraCalldata []*big.Int) *big.Int {
	calldata := make([]*big.Int, 0, len(extraCalldata)+1)
	calldata = append(calldata, publicKey)
	calldata = append(calldata, extraCalldata...)

	// deployer_address is zero for self-deployed accounts
	addr := curve.ComputeHashOnElements([]*big.Int{
		contractAddressPrefix,
		big.NewInt(0),
		salt,
		classHash,
		curve.ComputeHashOnElements(calldata),
	})

	return addr.Mod(addr, addressBound)
}

// AddressHex renders a field element as a 0x-prefixed, 64-digit hex
// string, the canonical address encoding.
func AddressHex(addr *big.Int) string {
	return fmt.Sprintf("0x%064x", addr)
}
