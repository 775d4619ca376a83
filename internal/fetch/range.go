package fetch

import "fmt"

// BlockRange is an inclusive block range. Value type, never mutated.
type BlockRange struct {
	From uint64
	To   uint64
}

// Windows pre-chunks a block range into fixed-size windows. This bounds
// the latency of any single request; correctness for oversized windows is
// handled by the fetcher's split recovery.
func Windows(from, to, size uint64) ([]BlockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	windows := make([]BlockRange, 0)
	start := from
	for start <= to {
		end := to
		if remaining := to - start + 1; remaining > size {
			end = start + size - 1
		}
		windows = append(windows, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return windows, nil
}
