package payout

// Status is the transfer state of a payout.
type Status string

const (
	StatusPending Status = "pending" // owed, nobody is sending it
	StatusSending Status = "sending" // claimed by one sender
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Claimable are the states a sender may take a payout from.
var Claimable = []Status{StatusPending, StatusFailed}

// IsSent reports whether the transfer has been submitted.
func (p *Payout) IsSent() bool {
	return p.Status == StatusSent
}

// Retryable reports whether a worker may try the transfer again.
func (p *Payout) Retryable(maxAttempts int) bool {
	return (p.Status == StatusPending || p.Status == StatusFailed) && p.Attempts < maxAttempts
}
