package signing

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// AccountRegistration is the structure the exchange verifies the L1
// signature against. It is signed, never persisted. Field order and
// type names must match the server's EIP-712 schema exactly; any
// divergence makes verification fail silently server-side.
type AccountRegistration struct {
	AccountIndex int    `json:"accountIndex"`
	Wallet       string `json:"wallet"`
	TosAccepted  bool   `json:"tosAccepted"`
	Time         string `json:"time"`
	Action       string `json:"action"`
	Host         string `json:"host"`
}

// RegistrationTypedData builds the domain-separated typed message for
// an account registration.
func RegistrationTypedData(domainName string, reg AccountRegistration) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
			},
			"AccountRegistration": []apitypes.Type{
				{Name: "accountIndex", Type: "int8"},
				{Name: "wallet", Type: "address"},
				{Name: "tosAccepted", Type: "bool"},
				{Name: "time", Type: "string"},
				{Name: "action", Type: "string"},
				{Name: "host", Type: "string"},
			},
		},
		PrimaryType: "AccountRegistration",
		Domain: apitypes.TypedDataDomain{
			Name: domainName,
		},
		Message: apitypes.TypedDataMessage{
			"accountIndex": fmt.Sprintf("%d", reg.AccountIndex),
			"wallet":       reg.Wallet,
			"tosAccepted":  reg.TosAccepted,
			"time":         reg.Time,
			"action":       reg.Action,
			"host":         reg.Host,
		},
	}
}

// AuthTypedData builds the short-lived request-auth message, signed
// over "{requestPath}@{timestamp}".
func AuthTypedData(domainName, message string) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
			},
			"AuthRequest": []apitypes.Type{
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "AuthRequest",
		Domain: apitypes.TypedDataDomain{
			Name: domainName,
		},
		Message: apitypes.TypedDataMessage{
			"message": message,
		},
	}
}

// SignTypedData hashes a typed, domain-separated structure and signs
// the digest with the L1 key. The result is the 0x-prefixed 65-byte
// r||s||v signature with v in {27, 28}.
func SignTypedData(td apitypes.TypedData, key *ecdsa.PrivateKey) (string, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign typed data: %w", err)
	}
	// crypto.Sign yields v in {0, 1}; verifiers expect {27, 28}
	sig[64] += 27

	return hexutil.Encode(sig), nil
}
