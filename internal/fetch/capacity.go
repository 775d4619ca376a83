package fetch

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// capacityErrorCode is the JSON-RPC code several providers use for
// "query matched more results than one call may return".
const capacityErrorCode = -32005

var capacityPatterns = []string{
	"query returned more than",
	"too many results",
	"response size exceeded",
	"exceeds max results",
	"block range is too wide",
	"limit exceeded",
}

// isCapacityError reports whether err is a provider capacity-exceeded
// signal, recoverable by splitting the queried range.
func isCapacityError(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == capacityErrorCode {
		return true
	}

	message := strings.ToLower(err.Error())
	for _, pattern := range capacityPatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// Some providers include a safe range in the capacity error message, e.g.
// "try with this block range [0x3e8, 0x7d0]".
var rangeHintPattern = regexp.MustCompile(`\[\s*(0x[0-9a-fA-F]+)\s*,\s*(0x[0-9a-fA-F]+)\s*\]`)

// suggestedRange extracts the provider's safe-range hint from a capacity
// error, if one is present.
func suggestedRange(err error) (BlockRange, bool) {
	if err == nil {
		return BlockRange{}, false
	}
	match := rangeHintPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return BlockRange{}, false
	}

	from, fromErr := strconv.ParseUint(strings.TrimPrefix(match[1], "0x"), 16, 64)
	to, toErr := strconv.ParseUint(strings.TrimPrefix(match[2], "0x"), 16, 64)
	if fromErr != nil || toErr != nil || to < from {
		return BlockRange{}, false
	}
	return BlockRange{From: from, To: to}, true
}
