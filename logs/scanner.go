package logs

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// ChunkSize is the nominal block span of a single eth_getLogs query.
	ChunkSize = 10_000

	// MaxLogsThreshold bounds the combined result count of one chunk. Past
	// it the cursor advances only to the highest block actually returned,
	// so a dense burst of bid activity cannot blow up a single query. The
	// small tail of re-queried blocks is made safe by the ledger dedup key.
	MaxLogsThreshold = 500

	// avgBlockTime is the rough seconds-per-block used to estimate the
	// block height at a given timestamp.
	avgBlockTime = 12
)

// Logger matches the root package's structured logging contract.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Scanner retrieves and decodes bid lifecycle logs for one auction
// (minter contract + project number + core contract) over a block range.
type Scanner struct {
	minter  common.Address
	project *big.Int
	core    common.Address
	logger  Logger

	// one query per watched signature, issued in this order per chunk
	watched []common.Hash
}

// NewScanner returns a scanner scoped to a single auction. All queries
// filter on the minter address and the indexed project/core topics.
func NewScanner(minter common.Address, project *big.Int, core common.Address, logger Logger) *Scanner {
	return &Scanner{
		minter:  minter,
		project: new(big.Int).Set(project),
		core:    core,
		logger:  logger,
		watched: []common.Hash{BidCreatedEvent, BidRemovedEvent, BidToppedUpEvent},
	}
}

// Scan walks [from, to] in chunks of at most ChunkSize blocks and calls emit
// for every decoded event, in scan order. Malformed logs are dropped with a
// warning. A transport failure is fatal to the scan and is returned together
// with the last fully consumed cursor, so the caller can resume from it.
// Each call re-executes network access; there is no internal retry.
func (s *Scanner) Scan(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(BidEvent)) (uint64, error) {
	cursor := from
	for cursor <= to {
		end := cursor + ChunkSize - 1
		if end > to {
			end = to
		}

		total := 0
		var maxBlock uint64
		for _, sig := range s.watched {
			query := ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(cursor),
				ToBlock:   new(big.Int).SetUint64(end),
				Addresses: []common.Address{s.minter},
				Topics: [][]common.Hash{
					{sig},
					{common.BigToHash(s.project)},
					{common.BytesToHash(common.LeftPadBytes(s.core.Bytes(), 32))},
				},
			}

			lgs, err := client.FilterLogs(ctx, query)
			if err != nil {
				return cursor, fmt.Errorf("filter logs [%d, %d] for %s: %w", cursor, end, sig.Hex(), err)
			}

			total += len(lgs)
			for _, lg := range lgs {
				if lg.BlockNumber > maxBlock {
					maxBlock = lg.BlockNumber
				}
				ev, err := Decode(lg)
				if err != nil {
					s.logger.Warn("dropping malformed bid log",
						"block", lg.BlockNumber, "tx", lg.TxHash.Hex(), "error", err)
					continue
				}
				emit(ev)
			}
		}

		if total > MaxLogsThreshold {
			// Dense chunk: everything past maxBlock in the nominal range was
			// never fetched, so resume right after the last block seen.
			s.logger.Debug("chunk over log threshold, truncating advance",
				"from", cursor, "nominal_end", end, "resume_at", maxBlock+1, "logs", total)
			cursor = maxBlock + 1
		} else {
			cursor = end + 1
		}
	}

	return cursor, nil
}

// EstimateStartBlock approximates the block height at a unix timestamp by
// walking back from the current head at avgBlockTime seconds per block.
// Used to bound a bid scan at the auction start without a block index.
func EstimateStartBlock(ctx context.Context, client ethclients.ETHClient, timestamp int64, now time.Time) (uint64, error) {
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("get head block: %w", err)
	}

	elapsed := now.Unix() - timestamp
	if elapsed <= 0 {
		return head, nil
	}

	behind := uint64(elapsed / avgBlockTime)
	if behind >= head {
		return 0, nil
	}
	return head - behind, nil
}
