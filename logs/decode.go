package logs

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKey uniquely identifies a log record on chain. Overlapping scan
// chunks may deliver the same record twice; consumers deduplicate on it.
type EventKey struct {
	BlockNumber uint64
	TxIndex     uint
	LogIndex    uint
}

// BidEvent is one decoded bid lifecycle event. The concrete types are
// BidCreated, BidRemoved and BidToppedUp.
type BidEvent interface {
	Key() EventKey
}

// BidCreated records a new bid entering the auction.
type BidCreated struct {
	At        EventKey
	BidID     uint64
	SlotIndex uint16
	Bidder    common.Address
}

func (e BidCreated) Key() EventKey { return e.At }

// BidRemoved records a bid leaving the auction (outbid and refunded).
// Removal is terminal for the bid id.
type BidRemoved struct {
	At    EventKey
	BidID uint64
}

func (e BidRemoved) Key() EventKey { return e.At }

// BidToppedUp records an existing bid moving to a higher slot.
type BidToppedUp struct {
	At           EventKey
	BidID        uint64
	NewSlotIndex uint16
}

func (e BidToppedUp) Key() EventKey { return e.At }

// DecodeError indicates a raw log that does not match the expected encoding
// for its event signature. The offending log is dropped, not the scan.
type DecodeError struct {
	Event  string
	TxHash common.Hash
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s log (tx %s): %s", e.Event, e.TxHash.Hex(), e.Reason)
}

// Bid events carry the project number and core contract as indexed topics,
// so a well-formed log always has topic0 plus two indexed parameters.
const expectedTopics = 3

// Decode turns a raw log into a typed bid event. Logs whose topic0 is not
// one of the watched signatures are rejected, never silently ignored.
func Decode(lg types.Log) (BidEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, &DecodeError{Event: "unknown", TxHash: lg.TxHash, Reason: "log has no topics"}
	}

	switch lg.Topics[0] {
	case BidCreatedEvent:
		return decodeBidCreated(lg)
	case BidRemovedEvent:
		return decodeBidRemoved(lg)
	case BidToppedUpEvent:
		return decodeBidToppedUp(lg)
	default:
		return nil, &DecodeError{
			Event:  "unknown",
			TxHash: lg.TxHash,
			Reason: fmt.Sprintf("unrecognized event signature %s", lg.Topics[0].Hex()),
		}
	}
}

// decodeBidCreated unpacks data = slotIndex ‖ bidId ‖ bidder, three 32-byte
// words with the address right-aligned in the final word.
func decodeBidCreated(lg types.Log) (BidEvent, error) {
	if len(lg.Topics) != expectedTopics {
		return nil, &DecodeError{Event: "BidCreated", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected %d topics, got %d", expectedTopics, len(lg.Topics))}
	}
	if len(lg.Data) != 96 {
		return nil, &DecodeError{Event: "BidCreated", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected 96 data bytes, got %d", len(lg.Data))}
	}

	slot, err := wordToSlotIndex(lg.Data[0:32])
	if err != nil {
		return nil, &DecodeError{Event: "BidCreated", TxHash: lg.TxHash, Reason: err.Error()}
	}

	return BidCreated{
		At:        keyOf(lg),
		SlotIndex: slot,
		BidID:     new(big.Int).SetBytes(lg.Data[32:64]).Uint64(),
		Bidder:    common.BytesToAddress(lg.Data[64:96]),
	}, nil
}

// decodeBidRemoved unpacks data = bidId, a single 32-byte word.
func decodeBidRemoved(lg types.Log) (BidEvent, error) {
	if len(lg.Topics) != expectedTopics {
		return nil, &DecodeError{Event: "BidRemoved", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected %d topics, got %d", expectedTopics, len(lg.Topics))}
	}
	if len(lg.Data) != 32 {
		return nil, &DecodeError{Event: "BidRemoved", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected 32 data bytes, got %d", len(lg.Data))}
	}

	return BidRemoved{
		At:    keyOf(lg),
		BidID: new(big.Int).SetBytes(lg.Data[0:32]).Uint64(),
	}, nil
}

// decodeBidToppedUp unpacks data = bidId ‖ newSlotIndex, two 32-byte words.
func decodeBidToppedUp(lg types.Log) (BidEvent, error) {
	if len(lg.Topics) != expectedTopics {
		return nil, &DecodeError{Event: "BidToppedUp", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected %d topics, got %d", expectedTopics, len(lg.Topics))}
	}
	if len(lg.Data) != 64 {
		return nil, &DecodeError{Event: "BidToppedUp", TxHash: lg.TxHash,
			Reason: fmt.Sprintf("expected 64 data bytes, got %d", len(lg.Data))}
	}

	slot, err := wordToSlotIndex(lg.Data[32:64])
	if err != nil {
		return nil, &DecodeError{Event: "BidToppedUp", TxHash: lg.TxHash, Reason: err.Error()}
	}

	return BidToppedUp{
		At:           keyOf(lg),
		BidID:        new(big.Int).SetBytes(lg.Data[0:32]).Uint64(),
		NewSlotIndex: slot,
	}, nil
}

// wordToSlotIndex narrows a 32-byte word to a slot index. Slot indexes are
// bounded at 511 on chain, so anything that does not fit uint16 is corrupt.
func wordToSlotIndex(word []byte) (uint16, error) {
	v := new(big.Int).SetBytes(word)
	if !v.IsUint64() || v.Uint64() > math.MaxUint16 {
		return 0, fmt.Errorf("slot index %s out of range", v.String())
	}
	return uint16(v.Uint64()), nil
}

func keyOf(lg types.Log) EventKey {
	return EventKey{
		BlockNumber: lg.BlockNumber,
		TxIndex:     lg.TxIndex,
		LogIndex:    lg.Index,
	}
}
