package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"claimscope/internal/model"
)

func testRows(n int) []*model.AccountStat {
	rows := make([]*model.AccountStat, n)
	for i := range rows {
		var address common.Address
		address[19] = byte(i + 1)
		rows[i] = model.NewAccountStat(address)
	}
	return rows
}

func TestEnrichCompletesUnderPartialFailure(t *testing.T) {
	const total = 40
	failing := map[byte]bool{3: true, 7: true, 21: true}

	for _, workers := range []int{1, 4, 32} {
		rows := testRows(total)

		var mu sync.Mutex
		inflight, maxInflight := 0, 0

		reader := ReaderFunc(func(_ context.Context, account common.Address) (*big.Int, error) {
			mu.Lock()
			inflight++
			if inflight > maxInflight {
				maxInflight = inflight
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inflight--
			mu.Unlock()

			if failing[account[19]] {
				return nil, errors.New("read failed")
			}
			return big.NewInt(int64(account[19])), nil
		})

		Enrich(context.Background(), rows, reader, Config{Workers: workers}, zap.NewNop())

		failed := 0
		for _, row := range rows {
			if row.ReadFailed {
				failed++
				if row.Claimable != nil {
					t.Fatalf("workers=%d: failed row carries a value", workers)
				}
				continue
			}
			if row.Claimable == nil {
				t.Fatalf("workers=%d: row %s missing claimable", workers, row.Address.Hex())
			}
			if row.Claimable.Int64() != int64(row.Address[19]) {
				t.Fatalf("workers=%d: claimable mismatch for %s", workers, row.Address.Hex())
			}
		}
		if failed != len(failing) {
			t.Fatalf("workers=%d: expected %d failures, got %d", workers, len(failing), failed)
		}
		if maxInflight > workers {
			t.Fatalf("workers=%d: concurrency cap exceeded: %d", workers, maxInflight)
		}
	}
}

func TestEnrichReadTimeout(t *testing.T) {
	rows := testRows(1)

	reader := ReaderFunc(func(ctx context.Context, _ common.Address) (*big.Int, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return big.NewInt(1), nil
		}
	})

	start := time.Now()
	Enrich(context.Background(), rows, reader, Config{Workers: 1, ReadTimeout: 20 * time.Millisecond}, zap.NewNop())

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timed-out read hung the pool: %s", elapsed)
	}
	if !rows[0].ReadFailed {
		t.Fatalf("timed-out read should be marked failed")
	}
}

func TestEnrichCancelMidBatch(t *testing.T) {
	rows := testRows(20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	reader := ReaderFunc(func(readCtx context.Context, _ common.Address) (*big.Int, error) {
		if started.Add(1) == 2 {
			cancel()
		}
		select {
		case <-readCtx.Done():
			return nil, readCtx.Err()
		case <-time.After(5 * time.Millisecond):
			return big.NewInt(1), nil
		}
	})

	done := make(chan struct{})
	go func() {
		Enrich(ctx, rows, reader, Config{Workers: 2}, zap.NewNop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("enrichment did not return after cancellation")
	}

	// Cancellation must never leave a row unresolved: each one carries
	// either a value or the read-failed marker.
	for _, row := range rows {
		if row.Claimable == nil && !row.ReadFailed {
			t.Fatalf("row %s resolved to neither value nor marker", row.Address.Hex())
		}
		if row.Claimable != nil && row.ReadFailed {
			t.Fatalf("row %s carries both value and marker", row.Address.Hex())
		}
	}
}

func TestEnrichEmpty(t *testing.T) {
	// Must not panic or block with nothing to do.
	Enrich(context.Background(), nil, ReaderFunc(func(context.Context, common.Address) (*big.Int, error) {
		return nil, fmt.Errorf("unreachable")
	}), Config{}, zap.NewNop())
}
