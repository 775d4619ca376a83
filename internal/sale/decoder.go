package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const wordSize = 32

// eventShape describes the expected layout of one event kind: how many
// topics the record must carry (topic0 plus indexed fields) and how many
// 32-byte words its payload must hold.
type eventShape struct {
	kind      EventKind
	topics    int
	dataWords int
}

// Decoder maps raw log records to typed sale events using a static
// topic0 schema. Records that match no known shape, or whose topic count
// or payload length disagrees with the shape, are skipped.
type Decoder struct {
	schema  map[common.Hash]eventShape
	skipped uint64
}

// NewDecoder builds a decoder for the sale contract's event schema.
func NewDecoder() (*Decoder, error) {
	parsed, err := SaleABI()
	if err != nil {
		return nil, err
	}

	schema := map[common.Hash]eventShape{
		parsed.Events["Purchase"].ID: {kind: EventBuy, topics: 2, dataWords: 1},
		parsed.Events["Claim"].ID:    {kind: EventClaim, topics: 2, dataWords: 2},
	}
	return &Decoder{schema: schema}, nil
}

// Topics returns the topic0 filters for every event kind the decoder
// understands, for use in the log query.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.schema))
	for topic := range d.schema {
		topics = append(topics, topic)
	}
	return topics
}

// Skipped returns how many records were dropped as malformed or
// unrecognized, for diagnostics.
func (d *Decoder) Skipped() uint64 {
	return d.skipped
}

// Decode converts a log record into a typed event. The second return is
// false for records that match no known shape; malformed records never
// abort a scan.
func (d *Decoder) Decode(log types.Log) (Event, bool) {
	if len(log.Topics) == 0 {
		d.skipped++
		return Event{}, false
	}
	shape, ok := d.schema[log.Topics[0]]
	if !ok {
		d.skipped++
		return Event{}, false
	}
	if len(log.Topics) != shape.topics || len(log.Data) != shape.dataWords*wordSize {
		d.skipped++
		return Event{}, false
	}

	// The account is 20 bytes right-aligned in the 32-byte topic slot;
	// BytesToHash->Address strips the leading zero bytes.
	account := common.BytesToAddress(log.Topics[1].Bytes())

	switch shape.kind {
	case EventBuy:
		return Event{
			Kind:    EventBuy,
			Account: account,
			Round:   dataWord(log.Data, 0),
		}, true
	case EventClaim:
		return Event{
			Kind:    EventClaim,
			Account: account,
			Units:   dataWord(log.Data, 0),
			Payout:  dataWord(log.Data, 1),
		}, true
	default:
		d.skipped++
		return Event{}, false
	}
}

// dataWord parses payload word i as a big-endian unsigned integer.
func dataWord(data []byte, i int) *big.Int {
	return new(big.Int).SetBytes(data[i*wordSize : (i+1)*wordSize])
}
