package gap

import (
	"errors"
	"fmt"
)

// ErrNoData marks a symbol whose prices could not be resolved at any
// fallback tier (delisted, invalid, or provider outage for that symbol).
// The scan skips the symbol and continues.
var ErrNoData = errors.New("no price data available")

// TotalScanFailureError is the engine's only fatal condition: every symbol
// in the universe failed to resolve.
type TotalScanFailureError struct {
	Attempted int
	Failed    int
}

func (e *TotalScanFailureError) Error() string {
	return fmt.Sprintf("gap scan: all %d of %d symbols failed to resolve", e.Failed, e.Attempted)
}
