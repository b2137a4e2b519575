package company

import "time"

type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Company struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Document           string             `json:"document,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// CanOperate reports whether the subscription allows writing budgets.
func (c Company) CanOperate() bool {
	switch c.SubscriptionStatus {
	case SubscriptionTrial, SubscriptionActive:
		return true
	default:
		return false
	}
}
