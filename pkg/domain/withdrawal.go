package domain

import "github.com/shopspring/decimal"

// Withdrawal statuses.
const (
	WithdrawalPending  = "PENDING"
	WithdrawalApproved = "APPROVED"
	WithdrawalRejected = "REJECTED"
)

// Withdrawal is a user's request to cash out wallet balance.
type Withdrawal struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Reason    string          `json:"rejectionReason,omitempty"`
	CreatedAt Timestamp       `json:"createdAt"`
}

// ReasonRequest carries the operator's reason for a ban or a rejection.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AdjustBalanceRequest is the body of POST /admin/users/{id}/adjust-balance.
type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}
