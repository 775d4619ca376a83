package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"claimscope/internal/model"
)

// WriteCSV writes rendered rows as a delimited file with a header row.
// The amount is exported both as the raw integer string and, when scale
// is positive, as the exactly-scaled decimal string.
func WriteCSV(path string, rows []*model.AccountStat, scale int) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"address", "buy_count", "claim_tx_count", "units_claimed", "amount_claimed_raw"}
	if scale > 0 {
		header = append(header, "amount_claimed")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Address.Hex(),
			strconv.FormatUint(row.BuyCount, 10),
			strconv.FormatUint(row.ClaimTxCount, 10),
			row.UnitsClaimed.String(),
			row.AmountClaimed.String(),
		}
		if scale > 0 {
			record = append(record, FormatScaled(row.AmountClaimed, scale))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
