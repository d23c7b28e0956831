package ramauction

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionWindowStateBoundaries(t *testing.T) {
	window := AuctionWindow{Start: 1000, End: 2000}

	tests := []struct {
		now  int64
		want AuctionState
	}{
		{999, StateUpcoming},
		{1000, StateLive},
		{1999, StateLive},
		{2000, StateCompleted},
		{5000, StateCompleted},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, window.State(tc.now), "now=%d", tc.now)
	}
}

func TestAuctionWindowRemainingText(t *testing.T) {
	window := AuctionWindow{Start: 1000, End: 2000}

	state, text := window.Remaining(930)
	assert.Equal(t, StateUpcoming, state)
	assert.Equal(t, "Starts in 1m 10s", text)

	state, text = window.Remaining(1900)
	assert.Equal(t, StateLive, state)
	assert.Equal(t, "1m 40s", text)

	state, text = window.Remaining(2000)
	assert.Equal(t, StateCompleted, state)
	assert.Equal(t, "Auction ended", text)
}

func TestAuctionWindowValidate(t *testing.T) {
	assert.NoError(t, AuctionWindow{Start: 10, End: 20}.Validate())
	assert.NoError(t, AuctionWindow{Start: 10, End: 10}.Validate())

	err := AuctionWindow{Start: 20, End: 10}.Validate()
	var integrityErr *DataIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, int64(20), integrityErr.Start)
	assert.Equal(t, int64(10), integrityErr.End)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{-5, "0s"},
		{59, "59s"},
		{65, "1m 5s"},
		{3600, "1h"},
		{3661, "1h 1m 1s"},
		{90061, "1d 1h 1m 1s"},
		{172800, "2d"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatDuration(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFormatWei(t *testing.T) {
	assert.Equal(t, "—", FormatWei(nil))
	assert.Equal(t, "1.0000 ETH", FormatWei(big.NewInt(1_000_000_000_000_000_000)))
	assert.Equal(t, "0.2500 ETH", FormatWei(big.NewInt(250_000_000_000_000_000)))

	wei, ok := new(big.Int).SetString("12345678900000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "12.3457 ETH", FormatWei(wei))
}

func TestClampSlot(t *testing.T) {
	// minimumSlotIndex=3: adjusting down from 3 stays at 3.
	assert.Equal(t, uint16(3), clampSlot(3-10, 3))
	// current=510, adjust +10 clamps to 511.
	assert.Equal(t, uint16(511), clampSlot(510+10, 3))
	assert.Equal(t, uint16(42), clampSlot(42, 3))
}
