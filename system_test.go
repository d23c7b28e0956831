package ramauction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryley-o/ab-mint-onchain/abi"
	"github.com/ryley-o/ab-mint-onchain/logs"
	"github.com/ryley-o/ab-mint-onchain/pricing"
)

var (
	sessionCore   = common.HexToAddress("0x99a9B7c1116f9ceEB1652de04d5969CcE509B069")
	sessionMinter = common.HexToAddress("0x00005BA2f5e4c7743321Ab8b26d661f13FBdF0E6")
)

// testLogger discards all output.
type testLogger struct{}

func (testLogger) Debug(msg string, args ...any) {}
func (testLogger) Info(msg string, args ...any)  {}
func (testLogger) Warn(msg string, args ...any)  {}
func (testLogger) Error(msg string, args ...any) {}

// --- Test Setup Helper ---

type sessionTestConfig struct {
	summary        *pricing.AuctionSummary
	auctionDetails AuctionDetailsFunc
	minimumNextBid MinimumNextBidFunc
	lowestBid      LowestBidFunc
	priceSlots     PriceSlotsFunc
	scanBids       ScanBidsFunc
	submitTx       SubmitTxFunc
	startBlock     uint64
	now            func() time.Time

	clockFrequency       time.Duration
	refreshFrequency     time.Duration
	postBidRefreshDelay  time.Duration
	postTopUpRescanDelay time.Duration
}

type testSession struct {
	Session    *AuctionSession
	TestClient *ethclients.TestETHClient
	cancel     context.CancelFunc

	// stub call counters
	detailCalls atomic.Uint64
	scanCalls   atomic.Uint64

	// errorMu protects capturedErrors
	errorMu        sync.Mutex
	capturedErrors []error
}

// AddError safely adds an error to the capturedErrors slice.
func (ts *testSession) AddError(err error) {
	ts.errorMu.Lock()
	defer ts.errorMu.Unlock()
	ts.capturedErrors = append(ts.capturedErrors, err)
}

// GetErrors safely returns a copy of the captured errors.
func (ts *testSession) GetErrors() []error {
	ts.errorMu.Lock()
	defer ts.errorMu.Unlock()
	errsCopy := make([]error, len(ts.capturedErrors))
	copy(errsCopy, ts.capturedErrors)
	return errsCopy
}

// testPrice mirrors the default priceSlots stub: (slot+1) * 1e15 wei.
func testPrice(slot uint16) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(slot)+1), big.NewInt(1e15))
}

func testOpenSession(t *testing.T, cfg *sessionTestConfig) *testSession {
	ctx, cancel := context.WithCancel(context.Background())

	ts := &testSession{
		TestClient: ethclients.NewTestETHClient(),
		cancel:     cancel,
	}

	if cfg == nil {
		cfg = &sessionTestConfig{}
	}

	// Default to a live auction that started recently.
	summary := cfg.summary
	if summary == nil {
		now := time.Now().Unix()
		summary = &pricing.AuctionSummary{
			StartTimestamp:     now - 100,
			EndTimestamp:       now + 3600,
			BasePrice:          big.NewInt(100_000_000_000_000_000),
			NumTokensInAuction: 64,
			NumBids:            10,
			MinBidSlotIndex:    2,
		}
	}

	auctionDetailsFunc := cfg.auctionDetails
	if auctionDetailsFunc == nil {
		auctionDetailsFunc = func(ctx context.Context, client ethclients.ETHClient) (*pricing.AuctionSummary, error) {
			copied := *summary
			return &copied, nil
		}
	}
	countedDetails := func(ctx context.Context, client ethclients.ETHClient) (*pricing.AuctionSummary, error) {
		ts.detailCalls.Add(1)
		return auctionDetailsFunc(ctx, client)
	}

	minimumNextBidFunc := cfg.minimumNextBid
	if minimumNextBidFunc == nil {
		minimumNextBidFunc = func(ctx context.Context, client ethclients.ETHClient) (*big.Int, uint16, error) {
			return big.NewInt(300_000_000_000_000_000), 3, nil
		}
	}

	lowestBidFunc := cfg.lowestBid
	if lowestBidFunc == nil {
		lowestBidFunc = func(ctx context.Context, client ethclients.ETHClient) (*big.Int, error) {
			return big.NewInt(250_000_000_000_000_000), nil
		}
	}

	priceSlotsFunc := cfg.priceSlots
	if priceSlotsFunc == nil {
		priceSlotsFunc = func(ctx context.Context, client ethclients.ETHClient, slots []uint16) ([]*big.Int, []error) {
			values := make([]*big.Int, len(slots))
			errs := make([]error, len(slots))
			for i, slot := range slots {
				values[i] = testPrice(slot)
			}
			return values, errs
		}
	}

	scanBidsFunc := cfg.scanBids
	if scanBidsFunc == nil {
		scanBidsFunc = func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
			return to + 1, nil
		}
	}
	countedScan := func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
		ts.scanCalls.Add(1)
		return scanBidsFunc(ctx, client, from, to, emit)
	}

	nowFunc := cfg.now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	// Background loops are disabled unless the test asks for them.
	frequencies := []*time.Duration{&cfg.clockFrequency, &cfg.refreshFrequency, &cfg.postBidRefreshDelay, &cfg.postTopUpRescanDelay}
	for _, f := range frequencies {
		if *f == 0 {
			*f = -1
		}
	}

	reg := prometheus.NewRegistry()

	sess, err := Open(ctx, &Config{
		SessionName:   "test_session",
		PrometheusReg: reg,
		Project:       big.NewInt(484),
		Core:          sessionCore,
		Minter:        sessionMinter,
		Account:       watchedAccount,
		StartBlock:    cfg.startBlock,
		GetClient:     func() (ethclients.ETHClient, error) { return ts.TestClient, nil },
		HeadBlock: func(ctx context.Context, client ethclients.ETHClient) (uint64, error) {
			return 500, nil
		},
		ScanBids: countedScan,
		EstimateStartBlock: func(ctx context.Context, client ethclients.ETHClient, timestamp int64) (uint64, error) {
			return 100, nil
		},
		AuctionDetails:       countedDetails,
		MinimumNextBid:       minimumNextBidFunc,
		LowestBid:            lowestBidFunc,
		PriceSlots:           priceSlotsFunc,
		SubmitTx:             cfg.submitTx,
		ErrorHandler:         ts.AddError,
		Logger:               testLogger{},
		Now:                  nowFunc,
		ClockFrequency:       cfg.clockFrequency,
		RefreshFrequency:     cfg.refreshFrequency,
		PostBidRefreshDelay:  cfg.postBidRefreshDelay,
		PostTopUpRescanDelay: cfg.postTopUpRescanDelay,
	})
	require.NoError(t, err)

	ts.Session = sess
	t.Cleanup(func() {
		sess.Close()
		cancel()
	})

	return ts
}

// --- Test Suite ---

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(context.Background(), &Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid auction session configuration")
}

func TestSessionInitialView(t *testing.T) {
	ts := testOpenSession(t, nil)

	summary := ts.Session.Summary()
	assert.Equal(t, uint64(10), summary.NumBids)
	assert.Equal(t, uint16(2), summary.MinBidSlotIndex)

	// The suggested slot follows the live minimum next bid, not the floor.
	assert.Equal(t, uint16(3), ts.Session.CurrentSlot())
	assert.Equal(t, "0.3000 ETH", ts.Session.MinimumNextBid())
	assert.Equal(t, "0.2500 ETH", ts.Session.LowestBid())

	state, text, err := ts.Session.Status()
	require.NoError(t, err)
	assert.Equal(t, StateLive, state)
	assert.NotEmpty(t, text)

	assert.Empty(t, ts.Session.MyBids())
}

func TestStatusReportsInvertedWindow(t *testing.T) {
	ts := testOpenSession(t, &sessionTestConfig{
		summary: &pricing.AuctionSummary{
			StartTimestamp: 2000,
			EndTimestamp:   1000,
			BasePrice:      big.NewInt(1),
		},
		now: func() time.Time { return time.Unix(1500, 0) },
	})

	_, text, err := ts.Session.Status()
	var integrityErr *DataIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, int64(2000), integrityErr.Start)
	assert.Equal(t, "—", text)

	// The inverted window was reported through the error handler at Open.
	require.NotEmpty(t, ts.GetErrors())
	assert.ErrorAs(t, ts.GetErrors()[0], &integrityErr)
}

func TestLoadMyBidsPublishesLedger(t *testing.T) {
	var gotFrom, gotTo uint64
	ts := testOpenSession(t, &sessionTestConfig{
		startBlock: 250,
		scanBids: func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
			gotFrom, gotTo = from, to
			emit(created(1, 7, 5, watchedAccount))
			emit(created(2, 8, 6, otherAccount))
			emit(toppedUp(3, 7, 9))
			emit(removed(4, 99))
			return to + 1, nil
		},
	})

	bids, err := ts.Session.LoadMyBids(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(250), gotFrom)
	assert.Equal(t, uint64(500), gotTo)

	require.Len(t, bids, 1)
	assert.Equal(t, uint64(7), bids[0].BidID)
	assert.Equal(t, uint16(9), bids[0].SlotIndex)

	published := ts.Session.MyBids()
	require.Len(t, published, 1)
	assert.Equal(t, bids[0], published[0])
}

func TestLoadMyBidsIsSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	ts := testOpenSession(t, &sessionTestConfig{
		scanBids: func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
			once.Do(func() { close(started) })
			<-gate
			emit(created(1, 7, 5, watchedAccount))
			return to + 1, nil
		},
	})

	done := make(chan error, 1)
	go func() {
		_, err := ts.Session.LoadMyBids(context.Background())
		done <- err
	}()

	<-started
	_, err := ts.Session.LoadMyBids(context.Background())
	require.ErrorIs(t, err, ErrScanInFlight)

	close(gate)
	require.NoError(t, <-done)
	require.Len(t, ts.Session.MyBids(), 1)
}

func TestLoadMyBidsKeepsSnapshotOnTransportFailure(t *testing.T) {
	var fail atomic.Bool
	ts := testOpenSession(t, &sessionTestConfig{
		scanBids: func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
			if fail.Load() {
				return 300, fmt.Errorf("connection reset")
			}
			emit(created(1, 7, 5, watchedAccount))
			return to + 1, nil
		},
	})

	_, err := ts.Session.LoadMyBids(context.Background())
	require.NoError(t, err)
	require.Len(t, ts.Session.MyBids(), 1)

	fail.Store(true)
	_, err = ts.Session.LoadMyBids(context.Background())
	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, uint64(300), scanErr.Cursor)

	// The failed scan must not clobber the previous snapshot.
	require.Len(t, ts.Session.MyBids(), 1)
}

func TestRefreshRecoversAfterFailedTick(t *testing.T) {
	var calls atomic.Uint64
	base := time.Now().Unix()
	ts := testOpenSession(t, &sessionTestConfig{
		refreshFrequency: 10 * time.Millisecond,
		auctionDetails: func(ctx context.Context, client ethclients.ETHClient) (*pricing.AuctionSummary, error) {
			n := calls.Add(1)
			if n > 1 && n < 4 {
				// Fail a couple of refresh ticks after the initial load.
				return nil, fmt.Errorf("rpc timeout")
			}
			return &pricing.AuctionSummary{
				StartTimestamp:  base - 100,
				EndTimestamp:    base + 3600,
				BasePrice:       big.NewInt(1),
				NumBids:         uint64(n),
				MinBidSlotIndex: 2,
			}, nil
		},
	})

	require.Eventually(t, func() bool {
		return ts.Session.Summary().NumBids >= 4
	}, time.Second, 5*time.Millisecond, "refresh should recover after failed ticks")

	var refreshErr *RefreshError
	var sawRefreshError bool
	for _, err := range ts.GetErrors() {
		if errors.As(err, &refreshErr) {
			sawRefreshError = true
		}
	}
	assert.True(t, sawRefreshError, "failed ticks should be reported as refresh errors")
}

func TestRefreshRaisesSlotFloor(t *testing.T) {
	var refreshed atomic.Bool
	ts := testOpenSession(t, &sessionTestConfig{
		refreshFrequency: 10 * time.Millisecond,
		minimumNextBid: func(ctx context.Context, client ethclients.ETHClient) (*big.Int, uint16, error) {
			if refreshed.Load() {
				return big.NewInt(2), 20, nil
			}
			return big.NewInt(1), 3, nil
		},
	})

	require.Equal(t, uint16(3), ts.Session.CurrentSlot())

	refreshed.Store(true)
	require.Eventually(t, func() bool {
		return ts.Session.CurrentSlot() == 20
	}, time.Second, 5*time.Millisecond, "pending slot should follow a rising bid floor")
}

func TestRefreshReportsRawInvertedWindow(t *testing.T) {
	var calls atomic.Uint64
	base := time.Now().Unix()
	ts := testOpenSession(t, &sessionTestConfig{
		refreshFrequency: 10 * time.Millisecond,
		auctionDetails: func(ctx context.Context, client ethclients.ETHClient) (*pricing.AuctionSummary, error) {
			if calls.Add(1) == 1 {
				return &pricing.AuctionSummary{
					StartTimestamp:  base - 100,
					EndTimestamp:    base + 3600,
					BasePrice:       big.NewInt(1),
					MinBidSlotIndex: 2,
				}, nil
			}
			// Later ticks report an inverted window.
			return &pricing.AuctionSummary{
				StartTimestamp:  9000,
				EndTimestamp:    8000,
				BasePrice:       big.NewInt(1),
				MinBidSlotIndex: 2,
			}, nil
		},
	})

	// Status must surface the offending timestamps, not the last valid ones.
	var integrityErr *DataIntegrityError
	require.Eventually(t, func() bool {
		_, _, err := ts.Session.Status()
		return errors.As(err, &integrityErr)
	}, time.Second, 5*time.Millisecond, "status should degrade once the window inverts")
	assert.Equal(t, int64(9000), integrityErr.Start)
	assert.Equal(t, int64(8000), integrityErr.End)
}

func TestAdjustSlotClamps(t *testing.T) {
	ts := testOpenSession(t, nil)

	// Floor is the summary's minimum slot (2), cap is the top slot.
	assert.Equal(t, uint16(2), ts.Session.AdjustSlot(-5))
	assert.Equal(t, uint16(2), ts.Session.AdjustSlot(1))
	assert.Equal(t, uint16(250), ts.Session.AdjustSlot(250))
	assert.Equal(t, uint16(MaxSlotIndex), ts.Session.AdjustSlot(100_000))
}

func TestPlaceBid(t *testing.T) {
	var submitted BidTx
	ts := testOpenSession(t, &sessionTestConfig{
		postBidRefreshDelay: 5 * time.Millisecond,
		submitTx: func(ctx context.Context, tx BidTx) (common.Hash, error) {
			submitted = tx
			return common.HexToHash("0xbeef"), nil
		},
	})

	hash, err := ts.Session.PlaceBid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xbeef"), hash)

	assert.Equal(t, sessionMinter, submitted.To)
	assert.Equal(t, abi.MinterRAMV0ABI.Methods["createBid"].ID, submitted.Data[:4])
	// CurrentSlot is 3, so msg.value must be the slot 3 curve price.
	assert.Equal(t, 0, testPrice(3).Cmp(submitted.Value))

	// Open fetched the summary once; the post-bid one-shot refresh fetches
	// it again.
	require.Eventually(t, func() bool {
		return ts.detailCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "a one-shot refresh should follow a bid")
}

func TestPlaceBidWithoutSubmitter(t *testing.T) {
	ts := testOpenSession(t, nil)

	_, err := ts.Session.PlaceBid(context.Background())
	require.ErrorIs(t, err, ErrNoSubmitter)
}

func TestTopUpBid(t *testing.T) {
	var submitted BidTx
	ts := testOpenSession(t, &sessionTestConfig{
		postTopUpRescanDelay: 5 * time.Millisecond,
		scanBids: func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error) {
			emit(created(1, 7, 5, watchedAccount))
			return to + 1, nil
		},
		submitTx: func(ctx context.Context, tx BidTx) (common.Hash, error) {
			submitted = tx
			return common.HexToHash("0xfeed"), nil
		},
	})

	_, err := ts.Session.LoadMyBids(context.Background())
	require.NoError(t, err)

	// A wildly out-of-range target clamps to the top slot.
	hash, err := ts.Session.TopUpBid(context.Background(), 7, 100_000)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xfeed"), hash)

	assert.Equal(t, sessionMinter, submitted.To)
	assert.Equal(t, abi.MinterRAMV0ABI.Methods["topUpBid"].ID, submitted.Data[:4])
	wantValue := new(big.Int).Sub(testPrice(MaxSlotIndex), testPrice(5))
	assert.Equal(t, 0, wantValue.Cmp(submitted.Value))

	// The first scan seeded the ledger; the post-top-up rescan is the second.
	require.Eventually(t, func() bool {
		return ts.scanCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "a rescan should follow a top-up")
}

func TestTopUpBidRejectsUntrackedBid(t *testing.T) {
	ts := testOpenSession(t, &sessionTestConfig{
		submitTx: func(ctx context.Context, tx BidTx) (common.Hash, error) {
			return common.Hash{}, nil
		},
	})

	_, err := ts.Session.TopUpBid(context.Background(), 42, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the tracked bid set")
}

func TestCloseStopsSession(t *testing.T) {
	ts := testOpenSession(t, &sessionTestConfig{
		submitTx: func(ctx context.Context, tx BidTx) (common.Hash, error) {
			return common.Hash{}, nil
		},
	})

	ts.Session.Close()

	_, err := ts.Session.LoadMyBids(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = ts.Session.PlaceBid(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = ts.Session.TopUpBid(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrSessionClosed)
}
