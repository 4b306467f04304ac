package pipeline

import (
	"strconv"
	"sync/atomic"
	"time"
)

var lastID atomic.Int64

// NewReferralID generates a referral identifier of the form REF-<integer>.
// The integer is a microsecond timestamp, bumped monotonically when two
// uploads land in the same microsecond, so identifiers are time-ordered
// and collision-resistant within a process. The record store still
// refuses a create on an existing id as the cross-process guard.
func NewReferralID() string {
	now := time.Now().UnixMicro()
	for {
		last := lastID.Load()
		if now <= last {
			now = last + 1
		}
		if lastID.CompareAndSwap(last, now) {
			return "REF-" + strconv.FormatInt(now, 10)
		}
	}
}
