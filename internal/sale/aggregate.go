package sale

import (
	"github.com/ethereum/go-ethereum/common"

	"claimscope/internal/model"
)

// Tally maps accounts to their accumulated statistics. Accounts keep
// first-seen order so downstream sorting has a deterministic tie-break.
type Tally struct {
	stats map[common.Address]*model.AccountStat
	order []common.Address
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{stats: make(map[common.Address]*model.AccountStat)}
}

// Apply folds one event into the tally. Every event is an independent
// delta, so applying a fixed set of events in any order produces the same
// tally.
func (t *Tally) Apply(event Event) {
	stat, ok := t.stats[event.Account]
	if !ok {
		stat = model.NewAccountStat(event.Account)
		t.stats[event.Account] = stat
		t.order = append(t.order, event.Account)
	}

	switch event.Kind {
	case EventBuy:
		stat.BuyCount++
	case EventClaim:
		stat.ClaimTxCount++
		stat.UnitsClaimed.Add(stat.UnitsClaimed, event.Units)
		stat.AmountClaimed.Add(stat.AmountClaimed, event.Payout)
	}
}

// Get returns the stat for an account, if any event referenced it.
func (t *Tally) Get(account common.Address) (*model.AccountStat, bool) {
	stat, ok := t.stats[account]
	return stat, ok
}

// Accounts returns every aggregated account in first-seen order.
func (t *Tally) Accounts() []common.Address {
	out := make([]common.Address, len(t.order))
	copy(out, t.order)
	return out
}

// Rows returns the aggregated stats in first-seen order.
func (t *Tally) Rows() []*model.AccountStat {
	rows := make([]*model.AccountStat, 0, len(t.order))
	for _, account := range t.order {
		rows = append(rows, t.stats[account])
	}
	return rows
}

// Len returns the number of aggregated accounts.
func (t *Tally) Len() int {
	return len(t.order)
}

// Fold aggregates a sequence of decoded events into a fresh tally.
func Fold(events []Event) *Tally {
	tally := NewTally()
	for _, event := range events {
		tally.Apply(event)
	}
	return tally
}
