package ramauction

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ryley-o/ab-mint-onchain/logs"
)

// BidView is an immutable snapshot of one tracked bid.
type BidView struct {
	BidID     uint64         `json:"bidId"`
	SlotIndex uint16         `json:"slotIndex"`
	Bidder    common.Address `json:"bidder"`
}

// BidLedger reconstructs the watched account's bid set by folding decoded
// bid events in scan order. Replayed events from overlapping scan chunks
// are no-ops: every event is applied at most once, keyed by its
// (block, transaction index, log index) triple.
//
// A ledger instance belongs to a single scan; it is not safe for two
// concurrent scans. The session serializes scans per auction interface.
type BidLedger struct {
	watched common.Address

	bidID     []uint64
	slotIndex []uint16
	bidder    []common.Address
	removed   []bool

	idToIndex map[uint64]int
	seen      map[logs.EventKey]struct{}

	// removals/top-ups for bid ids the ledger never saw created. Expected
	// for other accounts' bids; a large count against a watched account
	// suggests the scan range missed the creations.
	unknownBidEvents uint64
}

func NewBidLedger(watched common.Address) *BidLedger {
	return &BidLedger{
		watched:   watched,
		idToIndex: make(map[uint64]int),
		seen:      make(map[logs.EventKey]struct{}),
	}
}

// Apply folds one event into the ledger. Application is idempotent per
// event key and order-independent across distinct bid ids.
func (l *BidLedger) Apply(ev logs.BidEvent) {
	key := ev.Key()
	if _, dup := l.seen[key]; dup {
		return
	}
	l.seen[key] = struct{}{}

	switch e := ev.(type) {
	case logs.BidCreated:
		// Per-account ledger: other bidders' creations are never tracked.
		if e.Bidder != l.watched {
			return
		}
		if _, tracked := l.idToIndex[e.BidID]; tracked {
			return
		}
		l.bidID = append(l.bidID, e.BidID)
		l.slotIndex = append(l.slotIndex, e.SlotIndex)
		l.bidder = append(l.bidder, e.Bidder)
		l.removed = append(l.removed, false)
		l.idToIndex[e.BidID] = len(l.bidID) - 1

	case logs.BidRemoved:
		index, tracked := l.idToIndex[e.BidID]
		if !tracked {
			l.unknownBidEvents++
			return
		}
		l.removed[index] = true

	case logs.BidToppedUp:
		index, tracked := l.idToIndex[e.BidID]
		if !tracked {
			l.unknownBidEvents++
			return
		}
		if l.removed[index] {
			// Removal is terminal for a bid id.
			return
		}
		l.slotIndex[index] = e.NewSlotIndex
	}
}

// Active returns a fresh snapshot of the tracked bids that have not been
// removed. Order carries no meaning; display ordering is the caller's
// concern.
func (l *BidLedger) Active() []BidView {
	views := make([]BidView, 0, len(l.bidID))
	for i := range l.bidID {
		if l.removed[i] {
			continue
		}
		views = append(views, BidView{
			BidID:     l.bidID[i],
			SlotIndex: l.slotIndex[i],
			Bidder:    l.bidder[i],
		})
	}
	return views
}

// Tracked reports the total number of bids ever tracked, removed included.
func (l *BidLedger) Tracked() int {
	return len(l.bidID)
}

// UnknownBidEvents reports how many removals/top-ups referenced a bid id
// the ledger never saw created.
func (l *BidLedger) UnknownBidEvents() uint64 {
	return l.unknownBidEvents
}
