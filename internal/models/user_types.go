package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User with pointers for nullable memberships: CompanyID is absent for
// platform and retailer operators, RetailerID is set only for retailer
// operators.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	CompanyID    *string `json:"companyId,omitempty"`
	RetailerID   *string `json:"retailerId,omitempty"`
	Role         Role    `json:"role"`

	// SpendingLimit and SpentThisMonth are global across every retailer the
	// user can transact with. SpentThisMonth is a cache of the approved
	// transaction total for the current month; the transaction ledger is the
	// source of truth.
	SpendingLimit  float64   `json:"spendingLimit"`
	SpentThisMonth float64   `json:"spentThisMonth"`
	LastResetDate  time.Time `json:"lastResetDate"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) RecordID() string { return u.ID }

// Password helper (standard bcrypt wrapper).
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
