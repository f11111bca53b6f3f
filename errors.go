package quotes

import (
	"errors"
	"fmt"
)

// ErrNotPersisted tags a cache write that did not reach the disk (lock
// timeout or I/O failure). A priced resolution stays valid even when its
// cache write fails; callers check with errors.Is.
var ErrNotPersisted = errors.New("not persisted")

// MissingRateError reports that no usable quote exists for a currency pair
// over the whole lookback window. One missing pair never aborts unrelated
// pairs: callers annotate or skip the affected symbol and move on.
type MissingRateError struct {
	Pair Pair
	Err  error // underlying cause, nil when the window was simply empty
}

func (e *MissingRateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no exchange rate for %s: %v", e.Pair, e.Err)
	}
	return fmt.Sprintf("no exchange rate for %s: empty lookback window", e.Pair)
}

func (e *MissingRateError) Unwrap() error { return e.Err }
