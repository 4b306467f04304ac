package pipeline

import "referral-intake-service/constants"

// ResolveStatus derives a referral's initial workflow status from the
// extraction result's relevance classification. Relevant documents queue
// for human review; irrelevant ones are recorded as rejected rather than
// dropped, so a human can audit false negatives. Acceptance is always a
// later human action, never automatic.
func ResolveStatus(isReferral bool) constants.ReferralStatus {
	if isReferral {
		return constants.StatusPending
	}
	return constants.StatusRejected
}
