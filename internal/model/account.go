package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AccountStat accumulates sale activity for a single account. Keyed by the
// binary address, so differently-cased textual inputs collapse to one entry.
type AccountStat struct {
	Address       common.Address
	BuyCount      uint64
	ClaimTxCount  uint64
	UnitsClaimed  *big.Int
	AmountClaimed *big.Int

	// Claimable is the live claimable balance read from the contract during
	// enrichment. Nil until enrichment runs; ReadFailed marks an account
	// whose read failed without failing the batch.
	Claimable  *big.Int
	ReadFailed bool
}

// NewAccountStat returns a zeroed stat for an address.
func NewAccountStat(address common.Address) *AccountStat {
	return &AccountStat{
		Address:       address,
		UnitsClaimed:  big.NewInt(0),
		AmountClaimed: big.NewInt(0),
	}
}

// Snapshot is a fully-aggregated result set. Rows keep first-seen order and
// are read-only once the snapshot is published.
type Snapshot struct {
	Rows       []*AccountStat
	ProducedAt time.Time
}
