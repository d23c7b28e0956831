package ramauction

import (
	"errors"
	"fmt"

	"github.com/ryley-o/ab-mint-onchain/logs"
)

var (
	// ErrScanInFlight is returned when a bid rescan is requested while a
	// previous scan has not finished. Scans are single-flight per session.
	ErrScanInFlight = errors.New("bid scan already in flight")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("auction session is closed")

	// ErrNoSubmitter is returned when a bid is placed without a transaction
	// submitter wired into the session.
	ErrNoSubmitter = errors.New("no transaction submitter configured")
)

// ScanError wraps a transport failure during a bid-ledger scan. Cursor is
// the first block of the sub-range that failed; re-invoking the scan from
// it resumes without losing progress.
type ScanError struct {
	From   uint64
	To     uint64
	Cursor uint64
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("bid scan [%d, %d] failed at cursor %d: %v", e.From, e.To, e.Cursor, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// RefreshError wraps a failed periodic summary refresh. The tick is
// skipped; the next one runs at the normal cadence.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("auction summary refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// PricingError wraps a failed slot-price lookup. Pricing is fail-soft:
// the affected value displays as unknown, nothing else aborts.
type PricingError struct {
	SlotIndex uint16
	Err       error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("price lookup for slot %d failed: %v", e.SlotIndex, e.Err)
}

func (e *PricingError) Unwrap() error {
	return e.Err
}

// SubmitError wraps a failed bid transaction submission.
type SubmitError struct {
	BidID uint64 // zero for a new bid
	Err   error
}

func (e *SubmitError) Error() string {
	if e.BidID == 0 {
		return fmt.Sprintf("create bid failed: %v", e.Err)
	}
	return fmt.Sprintf("top up bid %d failed: %v", e.BidID, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// DataIntegrityError reports remote auction data that violates its own
// invariants, e.g. a start time after the end time. It is reported, never
// repaired; the session degrades to raw values without a computed state.
type DataIntegrityError struct {
	Start int64
	End   int64
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("auction window start %d is after end %d", e.Start, e.End)
}

// determineErrorType classifies an error for the errors metric label.
func determineErrorType(err error) string {
	var (
		scanErr      *ScanError
		refreshErr   *RefreshError
		pricingErr   *PricingError
		submitErr    *SubmitError
		integrityErr *DataIntegrityError
		decodeErr    *logs.DecodeError
	)
	switch {
	case errors.As(err, &scanErr):
		return "scan"
	case errors.As(err, &refreshErr):
		return "refresh"
	case errors.As(err, &pricingErr):
		return "pricing"
	case errors.As(err, &submitErr):
		return "submit"
	case errors.As(err, &integrityErr):
		return "data_integrity"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "unknown"
	}
}
