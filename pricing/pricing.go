// Package pricing reads the ranked-auction minter's view surface: the
// auction summary, the live bid floor, and the slot price curve. All reads
// go through eth_call against the resolved minter contract.
package pricing

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ryley-o/ab-mint-onchain/abi"
)

const (
	// defaultRPCTimeout defines the default timeout for individual RPC calls.
	defaultRPCTimeout = 10 * time.Second
)

// AuctionSummary is the decoded result of getAuctionDetails. Timestamps are
// unix seconds exactly as the contract reports them; no local clock is mixed
// in here.
type AuctionSummary struct {
	StartTimestamp                     int64
	EndTimestamp                       int64
	BasePrice                          *big.Int
	NumTokensInAuction                 uint64
	NumBids                            uint64
	NumBidsMintedTokens                uint64
	NumBidsErrorRefunded               uint64
	MinBidSlotIndex                    uint16
	AllowExtraTime                     bool
	AdminArtistOnlyMintPeriodIfSellout bool
	RevenuesCollected                  bool
	ProjectMinterState                 uint8
}

// AuctionDetails fetches and decodes the full auction summary for a project
// on its minter contract.
func AuctionDetails(
	ctx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	project *big.Int,
	core common.Address,
) (*AuctionSummary, error) {
	out, err := call(ctx, client, minter, "getAuctionDetails", project, core)
	if err != nil {
		return nil, err
	}
	if len(out) != 12 {
		return nil, fmt.Errorf("getAuctionDetails: expected 12 outputs, got %d", len(out))
	}

	start, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAuctionDetails: unexpected type for auctionTimestampStart")
	}
	end, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAuctionDetails: unexpected type for auctionTimestampEnd")
	}
	basePrice, ok := out[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAuctionDetails: unexpected type for basePrice")
	}

	summary := &AuctionSummary{
		StartTimestamp: start.Int64(),
		EndTimestamp:   end.Int64(),
		BasePrice:      basePrice,
	}

	counters := []*uint64{
		&summary.NumTokensInAuction,
		&summary.NumBids,
		&summary.NumBidsMintedTokens,
		&summary.NumBidsErrorRefunded,
	}
	for i, dst := range counters {
		v, ok := out[3+i].(*big.Int)
		if !ok || !v.IsUint64() {
			return nil, fmt.Errorf("getAuctionDetails: unexpected value for output %d", 3+i)
		}
		*dst = v.Uint64()
	}

	minSlot, ok := out[7].(*big.Int)
	if !ok || !minSlot.IsUint64() || minSlot.Uint64() > math.MaxUint16 {
		return nil, fmt.Errorf("getAuctionDetails: minBidSlotIndex out of range")
	}
	summary.MinBidSlotIndex = uint16(minSlot.Uint64())

	flags := []*bool{
		&summary.AllowExtraTime,
		&summary.AdminArtistOnlyMintPeriodIfSellout,
		&summary.RevenuesCollected,
	}
	for i, dst := range flags {
		v, ok := out[8+i].(bool)
		if !ok {
			return nil, fmt.Errorf("getAuctionDetails: unexpected value for output %d", 8+i)
		}
		*dst = v
	}

	state, ok := out[11].(uint8)
	if !ok {
		return nil, fmt.Errorf("getAuctionDetails: unexpected type for projectMinterState")
	}
	summary.ProjectMinterState = state

	return summary, nil
}

// LowestBidValue fetches the value of the lowest bid currently holding a
// token in the auction.
func LowestBidValue(
	ctx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	project *big.Int,
	core common.Address,
) (*big.Int, error) {
	out, err := call(ctx, client, minter, "getLowestBidValue", project, core)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getLowestBidValue: expected 1 output, got %d", len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getLowestBidValue: unexpected output type")
	}
	return value, nil
}

// MinimumNextBid fetches the minimum value and slot index a new bid must
// reach to enter the auction.
func MinimumNextBid(
	ctx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	project *big.Int,
	core common.Address,
) (*big.Int, uint16, error) {
	out, err := call(ctx, client, minter, "getMinimumNextBid", project, core)
	if err != nil {
		return nil, 0, err
	}
	if len(out) != 2 {
		return nil, 0, fmt.Errorf("getMinimumNextBid: expected 2 outputs, got %d", len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("getMinimumNextBid: unexpected type for minNextBidValueInWei")
	}
	slot, ok := out[1].(*big.Int)
	if !ok || !slot.IsUint64() || slot.Uint64() > math.MaxUint16 {
		return nil, 0, fmt.Errorf("getMinimumNextBid: minNextBidSlotIndex out of range")
	}
	return value, uint16(slot.Uint64()), nil
}

// SlotBidValue fetches the bid value the price curve assigns to a single
// slot index.
func SlotBidValue(
	ctx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	project *big.Int,
	core common.Address,
	slot uint16,
) (*big.Int, error) {
	out, err := call(ctx, client, minter, "slotIndexToBidValue", project, core, slot)
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", slot, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("slot %d: expected 1 output, got %d", slot, len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("slot %d: unexpected output type", slot)
	}
	return value, nil
}

// NewBidPricer returns a function that prices a batch of slot indexes while
// limiting the number of concurrent RPC calls to `maxConcurrentCalls`.
// The returned function matches the ramauction.PriceSlotsFunc type and can
// be injected as a dependency.
func NewBidPricer(
	maxConcurrentCalls int,
) func(
	ctx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	project *big.Int,
	core common.Address,
	slots []uint16,
) (values []*big.Int, errs []error) {

	// The returned function closes over the semaphore channel.
	semaphore := make(chan struct{}, maxConcurrentCalls)

	return func(
		ctx context.Context,
		client ethclients.ETHClient,
		minter common.Address,
		project *big.Int,
		core common.Address,
		slots []uint16,
	) (values []*big.Int, errs []error) {
		numSlots := len(slots)
		if numSlots == 0 {
			return nil, nil
		}

		// Pre-allocate result slices to the exact size needed so concurrent
		// goroutines can write to their own index without coordination.
		values = make([]*big.Int, numSlots)
		errs = make([]error, numSlots)

		var wg sync.WaitGroup
		wg.Add(numSlots)

		for i, slot := range slots {
			// Blocks until a spot is available in the semaphore channel,
			// limiting the number of in-flight calls.
			semaphore <- struct{}{}

			go func(index int, slot uint16) {
				defer func() {
					<-semaphore
					wg.Done()
				}()

				if ctx.Err() != nil {
					errs[index] = ctx.Err()
					return
				}

				value, err := SlotBidValue(ctx, client, minter, project, core, slot)
				if err != nil {
					errs[index] = err
					return
				}
				values[index] = value
			}(i, slot)
		}

		wg.Wait()

		return values, errs
	}
}

// call packs a minter method, performs the eth_call with the default
// timeout, and unpacks the outputs.
func call(
	parentCtx context.Context,
	client ethclients.ETHClient,
	minter common.Address,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(parentCtx, defaultRPCTimeout)
	defer cancel()

	data, err := abi.MinterRAMV0ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &minter,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call for %s on minter %s failed: %w", method, minter.Hex(), err)
	}

	out, err := abi.MinterRAMV0ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}
