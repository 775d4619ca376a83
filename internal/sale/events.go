package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind tags the closed set of decoded event variants.
type EventKind int

const (
	// EventBuy is a recorded purchase.
	EventBuy EventKind = iota
	// EventClaim is a recorded claim of purchased units.
	EventClaim
)

// Event is a decoded sale contract event. Account is always set; the
// numeric fields depend on the kind.
type Event struct {
	Kind    EventKind
	Account common.Address

	// Round is the purchase round for EventBuy.
	Round *big.Int

	// Units and Payout carry the claimed units and paid amount for
	// EventClaim.
	Units  *big.Int
	Payout *big.Int
}
