package export

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"claimscope/internal/model"
)

// SortKey selects the statistic rows are ordered by.
type SortKey string

const (
	SortBuys      SortKey = "buys"
	SortClaims    SortKey = "claims"
	SortUnits     SortKey = "units"
	SortAmount    SortKey = "amount"
	SortClaimable SortKey = "claimable"
)

// ParseSortKey validates a sort key string.
func ParseSortKey(input string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(input))) {
	case SortBuys:
		return SortBuys, nil
	case SortClaims:
		return SortClaims, nil
	case SortUnits:
		return SortUnits, nil
	case SortAmount:
		return SortAmount, nil
	case SortClaimable:
		return SortClaimable, nil
	default:
		return "", fmt.Errorf("unsupported sort key: %s", input)
	}
}

// Render orders rows descending by the chosen statistic, breaking ties by
// the incoming (first-seen) order, and truncates to limit when limit > 0.
// The input slice is not modified.
func Render(rows []*model.AccountStat, key SortKey, limit int) []*model.AccountStat {
	out := make([]*model.AccountStat, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		return sortValue(out[i], key).Cmp(sortValue(out[j], key)) > 0
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func sortValue(row *model.AccountStat, key SortKey) *big.Int {
	switch key {
	case SortBuys:
		return new(big.Int).SetUint64(row.BuyCount)
	case SortClaims:
		return new(big.Int).SetUint64(row.ClaimTxCount)
	case SortUnits:
		return row.UnitsClaimed
	case SortClaimable:
		if row.Claimable == nil {
			return big.NewInt(0)
		}
		return row.Claimable
	default:
		return row.AmountClaimed
	}
}

// FormatScaled renders an integer token amount as a decimal string divided
// by 10^scale, exactly, with trailing fractional zeros trimmed.
func FormatScaled(raw *big.Int, scale int) string {
	if raw == nil {
		return "0"
	}
	if scale <= 0 {
		return raw.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	quo, rem := new(big.Int).QuoRem(raw, divisor, new(big.Int))

	digits := rem.String()
	if pad := scale - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	fraction := strings.TrimRight(digits, "0")
	if fraction == "" {
		return quo.String()
	}
	return quo.String() + "." + fraction
}
