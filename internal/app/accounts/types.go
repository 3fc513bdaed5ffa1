package accounts

import "github.com/cardshare/digital-card-api/internal/domain"

// SignupInput creates a company and binds the caller's account to it.
type SignupInput struct {
	Email       string
	CompanyName string
	// Logo is the company logo as a data URL or remote URL.
	Logo string
}

// AccountView is an account together with its company.
type AccountView struct {
	Account domain.Account
	Company domain.Company
}
