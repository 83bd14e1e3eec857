package models

import "time"

// TransactionStatus is the final outcome of a verification attempt.
type TransactionStatus string

const (
	TransactionApproved TransactionStatus = "approved"
	TransactionDenied   TransactionStatus = "denied"
)

// DenialReason is the closed set of tags explaining a denied verification.
type DenialReason string

const (
	ReasonLimitExceeded           DenialReason = "limit_exceeded"
	ReasonUserInactive            DenialReason = "user_inactive"
	ReasonCompanyInactive         DenialReason = "company_inactive"
	ReasonUserNotFound            DenialReason = "user_not_found"
	ReasonCompanyNotFound         DenialReason = "company_not_found"
	ReasonRetailerNotFound        DenialReason = "retailer_not_found"
	ReasonNotLinked               DenialReason = "not_linked"
	ReasonInsufficientPermissions DenialReason = "insufficient_permissions"
)

// Transaction is the immutable decision record. One is written for every
// verification attempt, denied attempts included, so the collection is a
// complete decision log.
type Transaction struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	CompanyID     string            `json:"companyId"`
	RetailerID    string            `json:"retailerId"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	DenialReason  *DenialReason     `json:"denialReason,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	BalanceBefore float64           `json:"balanceBefore"`
	BalanceAfter  float64           `json:"balanceAfter"`
}

func (t Transaction) RecordID() string { return t.ID }
