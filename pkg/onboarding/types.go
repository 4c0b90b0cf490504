package onboarding

import (
	"github.com/stridetrade/starkwallet/pkg/keys"
	"github.com/stridetrade/starkwallet/pkg/signing"
)

// StarkSignatureHex is the wire encoding of an L2 signature.
type StarkSignatureHex struct {
	R string `json:"r"`
	S string `json:"s"`
}

// OnboardingPayload is the multi-part registration request body.
// Built once per attempt, never persisted.
type OnboardingPayload struct {
	L1Signature     string                      `json:"l1Signature"`
	L2Key           string                      `json:"l2Key"`
	L2Signature     StarkSignatureHex           `json:"l2Signature"`
	AccountCreation signing.AccountRegistration `json:"accountCreation"`
	ReferralCode    string                      `json:"referralCode,omitempty"`
}

// AccountDescriptor is the server-returned description of an activated
// trading account.
type AccountDescriptor struct {
	ID           int64  `json:"accountId"`
	L2VaultID    int64  `json:"l2VaultId"`
	AccountIndex int    `json:"accountIndex"`
	Status       string `json:"status,omitempty"`
	Description  string `json:"description,omitempty"`
}

// OnboardedAccount is the terminal aggregate handed to the caller on
// success: the activated account, the locally derived L2 key pair and
// the short-lived trading API key.
type OnboardedAccount struct {
	Account       AccountDescriptor
	KeyPair       *keys.StarkKeyPair
	TradingAPIKey string
}
