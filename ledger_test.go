package ramauction

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryley-o/ab-mint-onchain/logs"
)

var (
	watchedAccount = common.HexToAddress("0x1000000000000000000000000000000000000001")
	otherAccount   = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// key produces distinct dedup keys for test events.
func key(n uint64) logs.EventKey {
	return logs.EventKey{BlockNumber: n, TxIndex: 0, LogIndex: 0}
}

func created(k uint64, bidID uint64, slot uint16, bidder common.Address) logs.BidEvent {
	return logs.BidCreated{At: key(k), BidID: bidID, SlotIndex: slot, Bidder: bidder}
}

func removed(k uint64, bidID uint64) logs.BidEvent {
	return logs.BidRemoved{At: key(k), BidID: bidID}
}

func toppedUp(k uint64, bidID uint64, slot uint16) logs.BidEvent {
	return logs.BidToppedUp{At: key(k), BidID: bidID, NewSlotIndex: slot}
}

func reconcile(events []logs.BidEvent) []BidView {
	ledger := NewBidLedger(watchedAccount)
	for _, ev := range events {
		ledger.Apply(ev)
	}
	return ledger.Active()
}

func activeByID(views []BidView) map[uint64]BidView {
	m := make(map[uint64]BidView, len(views))
	for _, v := range views {
		m[v.BidID] = v
	}
	return m
}

func TestLedgerTracksWatchedAccountOnly(t *testing.T) {
	active := reconcile([]logs.BidEvent{
		created(1, 10, 5, watchedAccount),
		created(2, 11, 6, otherAccount),
	})

	require.Len(t, active, 1)
	assert.Equal(t, uint64(10), active[0].BidID)
}

func TestLedgerPerBidOrderSensitivity(t *testing.T) {
	t.Run("top-ups apply in order", func(t *testing.T) {
		active := reconcile([]logs.BidEvent{
			created(1, 10, 1, watchedAccount),
			toppedUp(2, 10, 5),
			toppedUp(3, 10, 9),
		})
		require.Len(t, active, 1)
		assert.Equal(t, uint16(9), active[0].SlotIndex)
	})

	t.Run("removal is terminal", func(t *testing.T) {
		active := reconcile([]logs.BidEvent{
			created(1, 10, 1, watchedAccount),
			toppedUp(2, 10, 5),
			removed(3, 10),
			toppedUp(4, 10, 9),
		})
		assert.Empty(t, active)
	})
}

func TestLedgerIgnoresUntrackedRemovalsAndTopUps(t *testing.T) {
	ledger := NewBidLedger(watchedAccount)
	ledger.Apply(removed(1, 99))
	ledger.Apply(toppedUp(2, 98, 4))

	assert.Empty(t, ledger.Active())
	assert.Zero(t, ledger.Tracked())
	assert.Equal(t, uint64(2), ledger.UnknownBidEvents())
}

func TestLedgerIdempotentReconciliation(t *testing.T) {
	events := []logs.BidEvent{
		created(1, 10, 1, watchedAccount),
		created(2, 11, 2, watchedAccount),
		toppedUp(3, 10, 7),
		removed(4, 11),
	}

	base := reconcile(events)

	// Replaying any subset of already-applied events must be a no-op.
	replayed := append(append([]logs.BidEvent{}, events...), events[0], events[2], events[3])
	assert.Equal(t, activeByID(base), activeByID(reconcile(replayed)))
}

func TestLedgerOrderIndependenceAcrossBidIDs(t *testing.T) {
	events := []logs.BidEvent{
		created(1, 10, 1, watchedAccount),
		created(2, 11, 2, watchedAccount),
		created(3, 12, 3, watchedAccount),
		toppedUp(4, 10, 8),
		removed(5, 11),
		toppedUp(6, 12, 9),
	}

	want := activeByID(reconcile(events))

	// Shuffles that preserve per-bid relative order: group events by bid id,
	// then interleave the groups randomly.
	groups := map[uint64][]logs.BidEvent{
		10: {events[0], events[3]},
		11: {events[1], events[4]},
		12: {events[2], events[5]},
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		remaining := map[uint64][]logs.BidEvent{}
		ids := make([]uint64, 0, len(groups))
		for id, evs := range groups {
			remaining[id] = append([]logs.BidEvent{}, evs...)
			ids = append(ids, id)
		}

		var permuted []logs.BidEvent
		for len(remaining) > 0 {
			id := ids[rng.Intn(len(ids))]
			evs, ok := remaining[id]
			if !ok {
				continue
			}
			permuted = append(permuted, evs[0])
			if len(evs) == 1 {
				delete(remaining, id)
			} else {
				remaining[id] = evs[1:]
			}
		}

		assert.Equal(t, want, activeByID(reconcile(permuted)), "trial %d", trial)
	}
}

func TestLedgerDuplicateCreateForSameBidID(t *testing.T) {
	// Same bid id under two distinct keys: the first insert wins.
	active := reconcile([]logs.BidEvent{
		created(1, 10, 3, watchedAccount),
		created(2, 10, 7, watchedAccount),
	})

	require.Len(t, active, 1)
	assert.Equal(t, uint16(3), active[0].SlotIndex)
}
