package ramauction

import (
	"fmt"
	"strings"
)

// AuctionState is the time-derived phase of a ranked auction. States are
// totally ordered by time and Completed is terminal.
type AuctionState int

const (
	StateUpcoming AuctionState = iota
	StateLive
	StateCompleted
)

func (s AuctionState) String() string {
	switch s {
	case StateUpcoming:
		return "upcoming"
	case StateLive:
		return "live"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("AuctionState(%d)", int(s))
	}
}

// AuctionWindow is the [start, end) interval during which bidding is live,
// in unix seconds. Immutable once fetched; `now` is sampled per evaluation.
type AuctionWindow struct {
	Start int64
	End   int64
}

// Validate reports an inverted window as a data-integrity error. The
// window is never silently repaired; callers degrade to raw values.
func (w AuctionWindow) Validate() error {
	if w.Start > w.End {
		return &DataIntegrityError{Start: w.Start, End: w.End}
	}
	return nil
}

// State evaluates the window against a sampled wall-clock time.
func (w AuctionWindow) State(now int64) AuctionState {
	switch {
	case now < w.Start:
		return StateUpcoming
	case now < w.End:
		return StateLive
	default:
		return StateCompleted
	}
}

// Remaining returns the state plus its human-readable countdown text.
func (w AuctionWindow) Remaining(now int64) (AuctionState, string) {
	switch state := w.State(now); state {
	case StateUpcoming:
		return state, "Starts in " + FormatDuration(w.Start-now)
	case StateLive:
		return state, FormatDuration(w.End - now)
	default:
		return state, "Auction ended"
	}
}

// Duration is the total configured length of the auction in seconds.
func (w AuctionWindow) Duration() int64 {
	return w.End - w.Start
}

// FormatDuration renders seconds as "1d 1h 1m 1s", omitting zero-valued
// leading units. Seconds always appear when every other unit is zero, so
// zero renders as "0s".
func FormatDuration(totalSeconds int64) string {
	if totalSeconds <= 0 {
		return "0s"
	}

	days := totalSeconds / 86_400
	hours := (totalSeconds % 86_400) / 3_600
	minutes := (totalSeconds % 3_600) / 60
	seconds := totalSeconds % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
