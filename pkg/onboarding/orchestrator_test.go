package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stridetrade/starkwallet/pkg/keys"
	"github.com/stridetrade/starkwallet/pkg/store"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testL1KeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
)

var hexField = regexp.MustCompile(`^0x[0-9a-f]+$`)

func testConfig() Config {
	return Config{
		Host:             "testnet.example.exchange",
		SigningDomain:    "testnet.example.exchange",
		AccountClassHash: big.NewInt(0x1234),
	}
}

func testParams(t *testing.T) OnboardParams {
	t.Helper()
	key, err := crypto.HexToECDSA(testL1KeyHex)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return OnboardParams{
		Mnemonic: testMnemonic,
		L1Key:    key,
	}
}

// mockExchange serves the three endpoints the way a healthy server
// would, capturing the last onboarding payload for inspection.
func mockExchange(t *testing.T) (*httptest.Server, *OnboardingPayload) {
	t.Helper()
	captured := &OnboardingPayload{}

	mux := http.NewServeMux()
	mux.HandleFunc(OnboardPath, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": AccountDescriptor{ID: 42, L2VaultID: 420, AccountIndex: captured.AccountCreation.AccountIndex},
		})
	})
	mux.HandleFunc(APIKeyPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("L1_SIGNATURE") == "" || r.Header.Get("L1_MESSAGE_TIME") == "" {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-X10-ACTIVE-ACCOUNT") != "42" {
			http.Error(w, "wrong account", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"key": "trading-key-1"}})
	})
	return httptest.NewServer(mux), captured
}

func TestOnboardCompletes(t *testing.T) {
	server, captured := mockExchange(t)
	defer server.Close()

	kv := store.NewMemoryStore()
	orch := NewOrchestrator(
		NewClient(server.URL, 5*time.Second),
		store.NewCredentialStore(kv),
		testConfig(),
	)

	account, err := orch.Onboard(context.Background(), testParams(t))
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}

	if account.TradingAPIKey != "trading-key-1" {
		t.Errorf("api key = %q", account.TradingAPIKey)
	}
	if account.Account.ID != 42 || account.Account.L2VaultID != 420 {
		t.Errorf("descriptor = %+v", account.Account)
	}
	if orch.State() != StageCompleted {
		t.Errorf("state = %s, want completed", orch.State())
	}

	// the submitted payload must carry complete signatures
	if captured.L1Signature == "" {
		t.Error("empty l1 signature submitted")
	}
	if !hexField.MatchString(captured.L2Signature.R) || !hexField.MatchString(captured.L2Signature.S) {
		t.Errorf("l2 signature not hex: %+v", captured.L2Signature)
	}
	if captured.AccountCreation.Action != "REGISTER" {
		t.Errorf("action = %q", captured.AccountCreation.Action)
	}
	if captured.AccountCreation.Host != "testnet.example.exchange" {
		t.Errorf("host = %q", captured.AccountCreation.Host)
	}

	// completed flow persists the full bundle
	bundle, err := store.NewCredentialStore(kv).Read()
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if bundle == nil {
		t.Fatal("no bundle persisted after completion")
	}
	if bundle.Mnemonic != testMnemonic {
		t.Error("mnemonic not carried into the bundle")
	}
}

// Derivation must work for whatever index the caller picks, not just
// the handful whose raw path output happens to land inside the curve
// order.
func TestOnboardAcrossAccountIndices(t *testing.T) {
	server, _ := mockExchange(t)
	defer server.Close()

	for _, idx := range []uint32{0, 3, 17, 255} {
		orch := NewOrchestrator(NewClient(server.URL, 5*time.Second), nil, testConfig())
		params := testParams(t)
		params.AccountIndex = idx

		account, err := orch.Onboard(context.Background(), params)
		if err != nil {
			t.Fatalf("index %d: onboard: %v", idx, err)
		}
		if int(idx) != account.Account.AccountIndex {
			t.Errorf("index %d: descriptor index = %d", idx, account.Account.AccountIndex)
		}
	}
}

func TestOnboardProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"tos not accepted"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	kv := store.NewMemoryStore()
	orch := NewOrchestrator(
		NewClient(server.URL, 5*time.Second),
		store.NewCredentialStore(kv),
		testConfig(),
	)

	_, err := orch.Onboard(context.Background(), testParams(t))
	if err == nil {
		t.Fatal("expected error")
	}

	var flowErr *FlowError
	if !errors.As(err, &flowErr) || flowErr.Stage != StageSubmitting {
		t.Fatalf("err = %v, want FlowError at submitting", err)
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
	if protoErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", protoErr.Status)
	}
	if protoErr.Body == "" {
		t.Error("original body not carried")
	}

	// no credential bundle is persisted on failure
	bundle, _ := store.NewCredentialStore(kv).Read()
	if bundle != nil {
		t.Error("bundle persisted despite failed onboarding")
	}
}

func TestOnboardMissingDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	orch := NewOrchestrator(NewClient(server.URL, 5*time.Second), nil, testConfig())

	_, err := orch.Onboard(context.Background(), testParams(t))
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError for 2xx without data", err)
	}
}

func TestOnboardNetworkErrorThenRetrySucceeds(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer slow.Close()

	kv := store.NewMemoryStore()
	orch := NewOrchestrator(
		NewClient(slow.URL, 50*time.Millisecond),
		store.NewCredentialStore(kv),
		testConfig(),
	)

	_, err := orch.Onboard(context.Background(), testParams(t))
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if bundle, _ := store.NewCredentialStore(kv).Read(); bundle != nil {
		t.Error("partial state persisted after timeout")
	}

	// a fresh pass against a working server succeeds
	good, _ := mockExchange(t)
	defer good.Close()
	orch2 := NewOrchestrator(
		NewClient(good.URL, 5*time.Second),
		store.NewCredentialStore(kv),
		testConfig(),
	)
	if _, err := orch2.Onboard(context.Background(), testParams(t)); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestOnboardBadMnemonic(t *testing.T) {
	orch := NewOrchestrator(NewClient("http://127.0.0.1:0", time.Second), nil, testConfig())

	p := testParams(t)
	p.Mnemonic = "definitely not a mnemonic"
	_, err := orch.Onboard(context.Background(), p)

	var flowErr *FlowError
	if !errors.As(err, &flowErr) || flowErr.Stage != StageDerivingKeys {
		t.Fatalf("err = %v, want FlowError at deriving_keys", err)
	}
	var kdErr *KeyDerivationError
	if !errors.As(err, &kdErr) {
		t.Fatalf("err = %v, want KeyDerivationError", err)
	}
}

func TestOnboardAPIKeyFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(OnboardPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": AccountDescriptor{ID: 7}})
	})
	mux.HandleFunc(APIKeyPath, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key limit reached", http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	orch := NewOrchestrator(NewClient(server.URL, 5*time.Second), nil, testConfig())

	_, err := orch.Onboard(context.Background(), testParams(t))
	var flowErr *FlowError
	if !errors.As(err, &flowErr) || flowErr.Stage != StageCreatingAPIKey {
		t.Fatalf("err = %v, want FlowError at creating_api_key", err)
	}
	var apiErr *APIKeyCreationError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIKeyCreationError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.Status)
	}
}

// fakeAPI lets enumeration tests inject descriptors directly.
type fakeAPI struct {
	descs []AccountDescriptor
}

func (f *fakeAPI) Onboard(ctx context.Context, payload *OnboardingPayload) (*AccountDescriptor, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) CreateAPIKey(ctx context.Context, auth AuthHeaders, description string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAPI) ListAccounts(ctx context.Context, auth AuthHeaders) ([]AccountDescriptor, error) {
	if auth.Signature == "" || auth.Timestamp == 0 {
		return nil, errors.New("missing auth")
	}
	return f.descs, nil
}

func TestGetExistingAccountsSkipsFailedDerivation(t *testing.T) {
	api := &fakeAPI{descs: []AccountDescriptor{
		{ID: 1, AccountIndex: 0},
		{ID: 2, AccountIndex: 1},
		{ID: 3, AccountIndex: -2}, // derivation cannot succeed here
	}}
	orch := NewOrchestrator(api, nil, testConfig())

	key, err := crypto.HexToECDSA(testL1KeyHex)
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	accounts, err := orch.GetExistingAccounts(context.Background(), testMnemonic, "", key)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}

	// keys are re-derived locally, never taken from the server
	expect0, err := keys.KeyPairFromMnemonic(testMnemonic, "", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if accounts[0].KeyPair.PublicHex() != expect0.PublicHex() {
		t.Error("account 0 key pair does not match local derivation")
	}
}

func TestClientListAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("L1_SIGNATURE") != "sig" || r.Header.Get("L1_MESSAGE_TIME") != "1700000000" {
			http.Error(w, "auth", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []AccountDescriptor{{ID: 5, AccountIndex: 0}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	descs, err := client.ListAccounts(context.Background(), AuthHeaders{Signature: "sig", Timestamp: 1700000000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(descs) != 1 || descs[0].ID != 5 {
		t.Errorf("descs = %+v", descs)
	}
}
