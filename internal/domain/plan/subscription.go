package plan

import "time"

type Subscription struct {
	ValidUntil *time.Time `json:"valid_until"`
	Expired    bool       `json:"expired"`
}

// NewSubscription marks the subscription expired only when a valid-until date
// is set and already past. No date means no expiry.
func NewSubscription(validUntil *time.Time, now time.Time) Subscription {
	return Subscription{
		ValidUntil: validUntil,
		Expired:    validUntil != nil && validUntil.Before(now),
	}
}
