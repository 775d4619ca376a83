package sale

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func buy(account common.Address) Event {
	return Event{Kind: EventBuy, Account: account, Round: big.NewInt(1)}
}

func claim(account common.Address, units, payout int64) Event {
	return Event{Kind: EventClaim, Account: account, Units: big.NewInt(units), Payout: big.NewInt(payout)}
}

func TestFoldScenario(t *testing.T) {
	a := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	c := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	tally := Fold([]Event{
		buy(a),
		buy(a),
		buy(b),
		claim(b, 10, 500),
	})

	statA, ok := tally.Get(a)
	if !ok {
		t.Fatalf("missing account A")
	}
	if statA.BuyCount != 2 || statA.ClaimTxCount != 0 {
		t.Fatalf("A counters mismatch: %+v", statA)
	}

	statB, ok := tally.Get(b)
	if !ok {
		t.Fatalf("missing account B")
	}
	if statB.BuyCount != 1 || statB.ClaimTxCount != 1 {
		t.Fatalf("B counters mismatch: %+v", statB)
	}
	if statB.UnitsClaimed.Cmp(big.NewInt(10)) != 0 || statB.AmountClaimed.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("B totals mismatch: %+v", statB)
	}

	// An account with no events is never synthesized.
	if _, ok := tally.Get(c); ok {
		t.Fatalf("account C should be absent")
	}
	if tally.Len() != 2 {
		t.Fatalf("expected 2 accounts, got %d", tally.Len())
	}
}

func TestFoldCommutative(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	events := []Event{
		buy(a), buy(b), buy(a),
		claim(a, 3, 100),
		claim(b, 7, 250),
		claim(a, 4, 150),
	}

	want := Fold(events)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]Event, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(x, y int) {
			shuffled[x], shuffled[y] = shuffled[y], shuffled[x]
		})

		got := Fold(shuffled)
		if got.Len() != want.Len() {
			t.Fatalf("permutation %d: account count mismatch", i)
		}
		for _, account := range want.Accounts() {
			w, _ := want.Get(account)
			g, ok := got.Get(account)
			if !ok {
				t.Fatalf("permutation %d: missing account %s", i, account.Hex())
			}
			if g.BuyCount != w.BuyCount || g.ClaimTxCount != w.ClaimTxCount {
				t.Fatalf("permutation %d: counters differ for %s", i, account.Hex())
			}
			if g.UnitsClaimed.Cmp(w.UnitsClaimed) != 0 || g.AmountClaimed.Cmp(w.AmountClaimed) != 0 {
				t.Fatalf("permutation %d: totals differ for %s", i, account.Hex())
			}
		}
	}
}

func TestFoldCanonicalizesAddressCasing(t *testing.T) {
	lower := common.HexToAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")
	upper := common.HexToAddress("0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD")

	tally := Fold([]Event{buy(lower), buy(upper)})

	if tally.Len() != 1 {
		t.Fatalf("expected one account, got %d", tally.Len())
	}
	stat, _ := tally.Get(lower)
	if stat.BuyCount != 2 {
		t.Fatalf("buy count mismatch: %d", stat.BuyCount)
	}
}

func TestTallyFirstSeenOrder(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	tally := Fold([]Event{buy(b), buy(a), buy(b)})

	rows := tally.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Address != b || rows[1].Address != a {
		t.Fatalf("first-seen order violated: %s, %s", rows[0].Address.Hex(), rows[1].Address.Hex())
	}
}
