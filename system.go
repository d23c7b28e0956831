// Package ramauction reconstructs a single account's bid set for a ranked
// auction from chunked event logs and keeps the live auction view (clock,
// summary, pricing) current while the session is open.
package ramauction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ryley-o/ab-mint-onchain/abi"
	"github.com/ryley-o/ab-mint-onchain/logs"
	"github.com/ryley-o/ab-mint-onchain/pricing"
)

// Logger defines a standard interface for structured, leveled logging,
// compatible with the standard library's slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// --- Function Type Definitions for Dependencies ---

// These named types create a clear, maintainable contract for the session's
// dependencies. All contract reads are injected so a session can be driven
// entirely by stubs in tests.

type GetClientFunc func() (ethclients.ETHClient, error)
type HeadBlockFunc func(ctx context.Context, client ethclients.ETHClient) (uint64, error)
type ScanBidsFunc func(ctx context.Context, client ethclients.ETHClient, from, to uint64, emit func(logs.BidEvent)) (uint64, error)
type EstimateStartBlockFunc func(ctx context.Context, client ethclients.ETHClient, timestamp int64) (uint64, error)
type AuctionDetailsFunc func(ctx context.Context, client ethclients.ETHClient) (*pricing.AuctionSummary, error)
type MinimumNextBidFunc func(ctx context.Context, client ethclients.ETHClient) (*big.Int, uint16, error)
type LowestBidFunc func(ctx context.Context, client ethclients.ETHClient) (*big.Int, error)
type PriceSlotsFunc func(ctx context.Context, client ethclients.ETHClient, slots []uint16) ([]*big.Int, []error)
type SubmitTxFunc func(ctx context.Context, tx BidTx) (common.Hash, error)
type ErrorHandlerFunc func(err error)

// BidTx is a prepared bid transaction: destination, packed call data, and
// the exact wei value the minter requires. Signing and broadcasting belong
// to the injected submitter.
type BidTx struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

const (
	defaultClockFrequency       = time.Second
	defaultRefreshFrequency     = 30 * time.Second
	defaultPostBidRefreshDelay  = 2 * time.Second
	defaultPostTopUpRescanDelay = 15 * time.Second
)

// Config holds all the dependencies and settings for an AuctionSession.
// Using a configuration struct makes initialization cleaner and more extensible.
type Config struct {
	SessionName   string
	PrometheusReg prometheus.Registerer

	// The auction identity: project number on a core contract, served by a
	// resolved minter, watched for one bidder account.
	Project *big.Int
	Core    common.Address
	Minter  common.Address
	Account common.Address

	// StartBlock optionally pins the first block of bid scans. Zero means
	// estimate it from the auction start timestamp.
	StartBlock uint64

	GetClient          GetClientFunc
	HeadBlock          HeadBlockFunc
	ScanBids           ScanBidsFunc
	EstimateStartBlock EstimateStartBlockFunc
	AuctionDetails     AuctionDetailsFunc
	MinimumNextBid     MinimumNextBidFunc
	LowestBid          LowestBidFunc
	PriceSlots         PriceSlotsFunc

	// SubmitTx is optional; a nil submitter makes the session watch-only
	// and PlaceBid/TopUpBid return ErrNoSubmitter.
	SubmitTx SubmitTxFunc

	ErrorHandler ErrorHandlerFunc
	Logger       Logger

	// Now is the clock source; nil means time.Now.
	Now func() time.Time

	// Zero frequencies fall back to the defaults; negative values disable
	// the corresponding background loop.
	ClockFrequency       time.Duration
	RefreshFrequency     time.Duration
	PostBidRefreshDelay  time.Duration
	PostTopUpRescanDelay time.Duration
}

// validate checks that all essential fields in the Config are provided.
func (c *Config) validate() error {
	if c.SessionName == "" {
		return errors.New("session name is required")
	}
	if c.Project == nil {
		return errors.New("project number is required")
	}
	if c.Core == (common.Address{}) {
		return errors.New("core contract address is required")
	}
	if c.Minter == (common.Address{}) {
		return errors.New("minter contract address is required")
	}
	if c.Account == (common.Address{}) {
		return errors.New("watched account address is required")
	}
	if c.GetClient == nil {
		return errors.New("get client function is required")
	}
	if c.HeadBlock == nil {
		return errors.New("head block function is required")
	}
	if c.ScanBids == nil {
		return errors.New("scan bids function is required")
	}
	if c.EstimateStartBlock == nil {
		return errors.New("estimate start block function is required")
	}
	if c.AuctionDetails == nil {
		return errors.New("auction details function is required")
	}
	if c.MinimumNextBid == nil {
		return errors.New("minimum next bid function is required")
	}
	if c.LowestBid == nil {
		return errors.New("lowest bid function is required")
	}
	if c.PriceSlots == nil {
		return errors.New("price slots function is required")
	}
	if c.ErrorHandler == nil {
		return errors.New("error handler function is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}

	return nil
}

// AuctionSession is the main orchestrator for one auction. It owns the bid
// ledger scans, the once-per-second auction clock, and the periodic summary
// refresh, and publishes immutable snapshots for display.
type AuctionSession struct {
	sessionName string
	project     *big.Int
	core        common.Address
	minter      common.Address
	account     common.Address
	startBlock  uint64

	getClient          GetClientFunc
	headBlock          HeadBlockFunc
	scanBids           ScanBidsFunc
	estimateStartBlock EstimateStartBlockFunc
	auctionDetails     AuctionDetailsFunc
	minimumNextBid     MinimumNextBidFunc
	lowestBid          LowestBidFunc
	priceSlots         PriceSlotsFunc
	submitTx           SubmitTxFunc
	errorHandler       ErrorHandlerFunc
	logger             Logger
	metrics            *Metrics
	now                func() time.Time

	clockFrequency       time.Duration
	refreshFrequency     time.Duration
	postBidRefreshDelay  time.Duration
	postTopUpRescanDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.RWMutex
	window         AuctionWindow
	windowValid    bool
	summary        *pricing.AuctionSummary
	lowest         *big.Int // nil when the last lookup failed
	minNextValue   *big.Int // nil when the last lookup failed
	minimumSlot    uint16
	currentSlot    uint16 // pending slot selection for a new bid
	lastClockState AuctionState

	scanning   atomic.Bool
	cachedBids atomic.Pointer[[]BidView]
}

// Open constructs a session, performs the initial auction summary fetch,
// and starts the clock and refresh goroutines. The session stays live until
// Close is called or the parent context is cancelled.
func Open(ctx context.Context, cfg *Config) (*AuctionSession, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid auction session configuration: %w", err)
	}

	metrics := NewMetrics(cfg.PrometheusReg, cfg.SessionName)

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &AuctionSession{
		sessionName:        cfg.SessionName,
		project:            new(big.Int).Set(cfg.Project),
		core:               cfg.Core,
		minter:             cfg.Minter,
		account:            cfg.Account,
		startBlock:         cfg.StartBlock,
		getClient:          cfg.GetClient,
		headBlock:          cfg.HeadBlock,
		scanBids:           cfg.ScanBids,
		estimateStartBlock: cfg.EstimateStartBlock,
		auctionDetails:     cfg.AuctionDetails,
		minimumNextBid:     cfg.MinimumNextBid,
		lowestBid:          cfg.LowestBid,
		priceSlots:         cfg.PriceSlots,
		submitTx:           cfg.SubmitTx,
		errorHandler: func(err error) {
			errorType := determineErrorType(err)
			cfg.Logger.Error("AuctionSession internal error", "session", cfg.SessionName, "type", errorType, "error", err)
			metrics.ErrorsTotal.WithLabelValues(errorType).Inc()

			cfg.ErrorHandler(err)
		},
		logger:               cfg.Logger,
		metrics:              metrics,
		now:                  cfg.Now,
		clockFrequency:       frequencyOrDefault(cfg.ClockFrequency, defaultClockFrequency),
		refreshFrequency:     frequencyOrDefault(cfg.RefreshFrequency, defaultRefreshFrequency),
		postBidRefreshDelay:  frequencyOrDefault(cfg.PostBidRefreshDelay, defaultPostBidRefreshDelay),
		postTopUpRescanDelay: frequencyOrDefault(cfg.PostTopUpRescanDelay, defaultPostTopUpRescanDelay),
		ctx:                  sessionCtx,
		cancel:               cancel,
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.cachedBids.Store(&[]BidView{})

	client, err := s.getClient()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to get eth client: %w", err)
	}

	summary, err := s.auctionDetails(ctx, client)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("initial auction summary fetch failed: %w", err)
	}
	s.summary = summary
	s.minimumSlot = summary.MinBidSlotIndex
	s.currentSlot = summary.MinBidSlotIndex

	s.window = AuctionWindow{Start: summary.StartTimestamp, End: summary.EndTimestamp}
	if err := s.window.Validate(); err != nil {
		// Report and degrade to raw timestamps; state stays uncomputed.
		s.errorHandler(err)
	} else {
		s.windowValid = true
		s.lastClockState = s.window.State(s.now().Unix())
	}

	// The suggested slot for a new bid follows the live minimum; a failed
	// lookup keeps the floor from the summary.
	if value, slot, err := s.minimumNextBid(ctx, client); err != nil {
		s.errorHandler(&PricingError{SlotIndex: s.minimumSlot, Err: err})
	} else {
		s.minNextValue = value
		s.currentSlot = clampSlot(int(slot), s.minimumSlot)
	}

	s.logger.Info("AuctionSession started",
		"session", s.sessionName,
		"project", s.project.String(),
		"core", s.core.Hex(),
		"minter", s.minter.Hex(),
		"account", s.account.Hex(),
	)
	go s.startClock(sessionCtx)
	go s.startRefresher(sessionCtx)

	return s, nil
}

func frequencyOrDefault(freq, def time.Duration) time.Duration {
	if freq == 0 {
		return def
	}
	return freq
}

// Close stops all background work. A scan in flight finishes but its result
// is discarded.
func (s *AuctionSession) Close() {
	s.cancel()
}

// --- Live view accessors ---

// Status evaluates the auction clock against the current wall time. A
// session with an inverted window has no computed state and returns the
// integrity error instead.
func (s *AuctionSession) Status() (AuctionState, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.windowValid {
		return StateUpcoming, unknownValue, &DataIntegrityError{Start: s.window.Start, End: s.window.End}
	}
	state, text := s.window.Remaining(s.now().Unix())
	return state, text, nil
}

// Summary returns the most recently fetched auction summary.
func (s *AuctionSession) Summary() pricing.AuctionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.summary
}

// LowestBid returns the display string for the current lowest bid value,
// a dash when the last lookup failed.
func (s *AuctionSession) LowestBid() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FormatWei(s.lowest)
}

// MinimumNextBid returns the display string for the minimum value a new bid
// must reach, a dash when the last lookup failed.
func (s *AuctionSession) MinimumNextBid() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FormatWei(s.minNextValue)
}

// CurrentSlot returns the pending slot selection for a new bid.
func (s *AuctionSession) CurrentSlot() uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSlot
}

// AdjustSlot moves the pending slot selection for a new bid, clamping to
// the valid range. Out-of-range requests clamp, they are never rejected.
func (s *AuctionSession) AdjustSlot(candidate int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSlot = clampSlot(candidate, s.minimumSlot)
	return s.currentSlot
}

// MyBids returns a copy of the latest published bid snapshot. This
// operation is lock-free.
func (s *AuctionSession) MyBids() []BidView {
	viewPtr := s.cachedBids.Load()
	if viewPtr == nil {
		return nil
	}
	view := *viewPtr
	viewCopy := make([]BidView, len(view))
	copy(viewCopy, view)
	return viewCopy
}

// --- Bid ledger scans ---

// LoadMyBids rebuilds the watched account's bid set from event logs and
// publishes the result. Scans are single-flight: a call while another scan
// is running returns ErrScanInFlight and the caller simply keeps the
// previous snapshot. A transport failure aborts the scan without
// publishing; re-invoking resumes safely because ledger application is
// idempotent.
func (s *AuctionSession) LoadMyBids(ctx context.Context) ([]BidView, error) {
	if s.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInFlight
	}
	defer s.scanning.Store(false)

	timer := prometheus.NewTimer(s.metrics.ScanDuration.WithLabelValues())
	defer timer.ObserveDuration()

	scanID := uuid.NewString()

	client, err := s.getClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get eth client: %w", err)
	}

	from := s.startBlock
	if from == 0 {
		s.mu.RLock()
		start := s.window.Start
		s.mu.RUnlock()
		from, err = s.estimateStartBlock(ctx, client, start)
		if err != nil {
			scanErr := &ScanError{Err: fmt.Errorf("estimate start block: %w", err)}
			s.errorHandler(scanErr)
			return nil, scanErr
		}
	}

	head, err := s.headBlock(ctx, client)
	if err != nil {
		scanErr := &ScanError{From: from, Err: fmt.Errorf("get head block: %w", err)}
		s.errorHandler(scanErr)
		return nil, scanErr
	}

	s.logger.Info("starting bid scan",
		"scan_id", scanID, "account", s.account.Hex(), "from", from, "to", head)

	ledger := NewBidLedger(s.account)
	cursor, err := s.scanBids(ctx, client, from, head, ledger.Apply)
	if err != nil {
		scanErr := &ScanError{From: from, To: head, Cursor: cursor, Err: err}
		s.errorHandler(scanErr)
		return nil, scanErr
	}

	active := ledger.Active()
	s.metrics.LastScannedBlock.WithLabelValues().Set(float64(cursor))
	s.metrics.ScansTotal.WithLabelValues().Inc()
	s.metrics.ActiveBids.WithLabelValues().Set(float64(len(active)))
	if unknown := ledger.UnknownBidEvents(); unknown > 0 {
		s.metrics.UnknownBidEvents.WithLabelValues().Add(float64(unknown))
		s.logger.Debug("scan saw events for untracked bids",
			"scan_id", scanID, "count", unknown)
	}

	if s.ctx.Err() != nil {
		// Session closed while scanning; the result is stale by definition.
		return nil, ErrSessionClosed
	}

	s.cachedBids.Store(&active)
	s.logger.Info("bid scan complete",
		"scan_id", scanID, "cursor", cursor, "active_bids", len(active), "tracked_bids", ledger.Tracked())

	viewCopy := make([]BidView, len(active))
	copy(viewCopy, active)
	return viewCopy, nil
}

// --- Bid submission ---

// PlaceBid prepares and submits a createBid transaction at the pending slot
// selection, paying exactly the slot's curve value. On success a one-shot
// summary refresh is scheduled so the view catches up with the new bid.
func (s *AuctionSession) PlaceBid(ctx context.Context) (common.Hash, error) {
	if s.ctx.Err() != nil {
		return common.Hash{}, ErrSessionClosed
	}
	if s.submitTx == nil {
		return common.Hash{}, ErrNoSubmitter
	}

	slot := s.CurrentSlot()

	client, err := s.getClient()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get eth client: %w", err)
	}

	values, errs := s.priceSlots(ctx, client, []uint16{slot})
	if errs[0] != nil {
		priceErr := &PricingError{SlotIndex: slot, Err: errs[0]}
		s.errorHandler(priceErr)
		return common.Hash{}, priceErr
	}

	data, err := abi.MinterRAMV0ABI.Pack("createBid", s.project, s.core, slot)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack createBid: %w", err)
	}

	hash, err := s.submitTx(ctx, BidTx{To: s.minter, Data: data, Value: values[0]})
	if err != nil {
		submitErr := &SubmitError{Err: err}
		s.errorHandler(submitErr)
		return common.Hash{}, submitErr
	}

	s.metrics.BidsSubmittedTotal.WithLabelValues("create").Inc()
	s.logger.Info("bid submitted",
		"tx", hash.Hex(), "slot", slot, "value", FormatWei(values[0]))

	s.scheduleRefresh(s.postBidRefreshDelay)
	return hash, nil
}

// TopUpBid raises an existing bid to a higher slot, paying only the
// difference between the two slot values. The target slot clamps to
// [current+1, MaxSlotIndex]. On success a delayed bid rescan is scheduled
// so the ledger picks up the BidToppedUp event.
func (s *AuctionSession) TopUpBid(ctx context.Context, bidID uint64, candidateSlot int) (common.Hash, error) {
	if s.ctx.Err() != nil {
		return common.Hash{}, ErrSessionClosed
	}
	if s.submitTx == nil {
		return common.Hash{}, ErrNoSubmitter
	}

	var bid *BidView
	for _, view := range s.MyBids() {
		if view.BidID == bidID {
			bid = &view
			break
		}
	}
	if bid == nil {
		return common.Hash{}, fmt.Errorf("bid %d is not in the tracked bid set", bidID)
	}
	if bid.SlotIndex >= MaxSlotIndex {
		return common.Hash{}, fmt.Errorf("bid %d already occupies the top slot", bidID)
	}

	newSlot := clampSlot(candidateSlot, bid.SlotIndex+1)

	client, err := s.getClient()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get eth client: %w", err)
	}

	values, errs := s.priceSlots(ctx, client, []uint16{bid.SlotIndex, newSlot})
	for i, slotErr := range errs {
		if slotErr != nil {
			priceErr := &PricingError{SlotIndex: []uint16{bid.SlotIndex, newSlot}[i], Err: slotErr}
			s.errorHandler(priceErr)
			return common.Hash{}, priceErr
		}
	}

	// The minter expects exactly the difference between the two curve
	// values as msg.value.
	value := new(big.Int).Sub(values[1], values[0])
	if value.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("slot %d does not cost more than slot %d", newSlot, bid.SlotIndex)
	}

	data, err := abi.MinterRAMV0ABI.Pack("topUpBid", s.project, s.core, new(big.Int).SetUint64(bidID), newSlot)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack topUpBid: %w", err)
	}

	hash, err := s.submitTx(ctx, BidTx{To: s.minter, Data: data, Value: value})
	if err != nil {
		submitErr := &SubmitError{BidID: bidID, Err: err}
		s.errorHandler(submitErr)
		return common.Hash{}, submitErr
	}

	s.metrics.BidsSubmittedTotal.WithLabelValues("topup").Inc()
	s.logger.Info("top-up submitted",
		"tx", hash.Hex(), "bid", bidID, "from_slot", bid.SlotIndex, "to_slot", newSlot, "value", FormatWei(value))

	s.scheduleRescan(s.postTopUpRescanDelay)
	return hash, nil
}

// --- Background loops ---

// startClock re-evaluates the auction state once per tick, logging phase
// transitions, and stops itself once the auction completes. Completion is
// terminal; the window never moves backwards.
func (s *AuctionSession) startClock(ctx context.Context) {
	if s.clockFrequency <= 0 {
		return
	}
	ticker := time.NewTicker(s.clockFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.tickClock() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tickClock advances the observed auction state by one evaluation and
// reports whether the clock should stop.
func (s *AuctionSession) tickClock() (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.windowValid {
		return false
	}

	state := s.window.State(s.now().Unix())
	if state != s.lastClockState {
		s.logger.Info("auction state changed",
			"session", s.sessionName, "from", s.lastClockState.String(), "to", state.String())
		s.lastClockState = state
	}
	return state == StateCompleted
}

// startRefresher re-fetches the auction summary and pricing at a fixed
// cadence. A failed refresh logs, counts, and skips the tick; the next one
// runs at the normal cadence.
func (s *AuctionSession) startRefresher(ctx context.Context) {
	if s.refreshFrequency <= 0 {
		return
	}
	ticker := time.NewTicker(s.refreshFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// refresh performs one summary + pricing fetch cycle. The summary fetch is
// load-bearing; the price lookups are fail-soft and degrade their single
// displayed value to unknown.
func (s *AuctionSession) refresh(ctx context.Context) {
	timer := prometheus.NewTimer(s.metrics.RefreshDuration.WithLabelValues())
	defer timer.ObserveDuration()

	client, err := s.getClient()
	if err != nil {
		s.errorHandler(&RefreshError{Err: fmt.Errorf("failed to get eth client: %w", err)})
		s.metrics.RefreshesSkipped.WithLabelValues().Inc()
		return
	}

	summary, err := s.auctionDetails(ctx, client)
	if err != nil {
		s.errorHandler(&RefreshError{Err: err})
		s.metrics.RefreshesSkipped.WithLabelValues().Inc()
		return
	}

	lowest, lowestErr := s.lowestBid(ctx, client)
	if lowestErr != nil {
		s.errorHandler(&PricingError{Err: lowestErr})
		lowest = nil
	}

	minNextValue, minNextSlot, minNextErr := s.minimumNextBid(ctx, client)
	if minNextErr != nil {
		s.errorHandler(&PricingError{Err: minNextErr})
		minNextValue = nil
		minNextSlot = summary.MinBidSlotIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary = summary
	s.lowest = lowest
	s.minNextValue = minNextValue
	s.minimumSlot = summary.MinBidSlotIndex

	// Keep the raw timestamps even when inconsistent so Status reports the
	// offending values rather than a stale window.
	s.window = AuctionWindow{Start: summary.StartTimestamp, End: summary.EndTimestamp}
	if err := s.window.Validate(); err != nil {
		s.windowValid = false
		// Already holding s.mu; report outside the session's own accessors.
		go s.errorHandler(err)
	} else {
		s.windowValid = true
	}

	// The bid floor may have risen; the pending selection must stay valid.
	floor := s.minimumSlot
	if minNextErr == nil && minNextSlot > floor {
		floor = minNextSlot
	}
	if s.currentSlot < floor {
		s.currentSlot = floor
	}

	s.logger.Debug("auction summary refreshed",
		"session", s.sessionName, "num_bids", summary.NumBids, "min_slot", s.minimumSlot)
}

// scheduleRefresh runs one refresh after the delay unless the session
// closes first.
func (s *AuctionSession) scheduleRefresh(delay time.Duration) {
	go func() {
		select {
		case <-time.After(delay):
			s.refresh(s.ctx)
		case <-s.ctx.Done():
		}
	}()
}

// scheduleRescan runs one bid rescan after the delay unless the session
// closes first. A rescan that loses the single-flight race is dropped; the
// scan that beat it observes the same chain state.
func (s *AuctionSession) scheduleRescan(delay time.Duration) {
	go func() {
		select {
		case <-time.After(delay):
			if _, err := s.LoadMyBids(s.ctx); err != nil && !errors.Is(err, ErrScanInFlight) && !errors.Is(err, ErrSessionClosed) {
				s.logger.Warn("scheduled bid rescan failed", "error", err)
			}
		case <-s.ctx.Done():
		}
	}()
}
