package wallet

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// WalletInfo stores non-secret wallet metadata next to the keystore.
type WalletInfo struct {
	Address     common.Address `json:"address"`
	CreatedAt   time.Time      `json:"created_at"`
	FromImport  bool           `json:"from_import"`
	HasMnemonic bool           `json:"has_mnemonic"`
}
