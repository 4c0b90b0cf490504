package onboarding

import "fmt"

// Stage identifies where in the onboarding flow a failure happened.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageDerivingKeys    Stage = "deriving_keys"
	StageBuildingPayload Stage = "building_payload"
	StageSubmitting      Stage = "submitting"
	StageCreatingAPIKey  Stage = "creating_api_key"
	StageCompleted       Stage = "completed"
	StageFailed          Stage = "failed"
)

// FlowError tags a stage failure with the stage it happened in. The
// wrapped error is one of the kind types below; callers unwrap with
// errors.As to decide whether to retry the whole flow, retry from
// submission, or abort.
type FlowError struct {
	Stage Stage
	Err   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("onboarding failed at %s: %v", e.Stage, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// KeyDerivationError covers malformed mnemonics and out-of-range
// scalars.
type KeyDerivationError struct {
	Err error
}

func (e *KeyDerivationError) Error() string {
	return fmt.Sprintf("key derivation failed: %v", e.Err)
}

func (e *KeyDerivationError) Unwrap() error { return e.Err }

// SigningError covers failures producing either the L1 typed-data
// signature or the L2 curve signature.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// NetworkError is a transport-level failure: DNS, connection reset,
// timeout. Distinct from ProtocolError so callers can retry on flaky
// links without re-interpreting server responses.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is a non-success or malformed response. Status and the
// raw body are carried for diagnostics, never retried automatically.
type ProtocolError struct {
	Op     string
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected response (status %d): %s", e.Op, e.Status, e.Body)
}

// APIKeyCreationError is a failure minting the trading API key.
type APIKeyCreationError struct {
	Status int
	Body   string
	Err    error
}

func (e *APIKeyCreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api key creation failed: %v", e.Err)
	}
	return fmt.Sprintf("api key creation failed (status %d): %s", e.Status, e.Body)
}

func (e *APIKeyCreationError) Unwrap() error { return e.Err }

// StorageError is a failure persisting the credential bundle.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential storage failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
