package constants

// ReferralStatus is the workflow state of a referral record.
type ReferralStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending  ReferralStatus = "pending"  // queued for human review
	StatusAccepted ReferralStatus = "accepted" // accepted by a reviewer
	StatusRejected ReferralStatus = "rejected" // pre-filtered or declined; kept for audit
)

// IsValidStatus reports whether s is one of the known workflow states.
func IsValidStatus(s ReferralStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether a referral may move from one status to
// another. The only legal transitions are pending -> accepted and
// pending -> rejected; nothing moves back to pending.
func CanTransition(from, to ReferralStatus) bool {
	return from == StatusPending && (to == StatusAccepted || to == StatusRejected)
}
