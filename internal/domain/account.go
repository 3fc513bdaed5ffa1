package domain

import "time"

// Company is an organisation created at signup. Profiles reference it by name.
type Company struct {
	ID   CompanyID
	Name string
	// Logo is a data URL or remote URL.
	Logo      string
	CreatedBy string
	CreatedAt time.Time
}

// Account binds an authenticated subject to a company and, once set up, a profile.
type Account struct {
	ID        AccountID
	Subject   SubjectID
	Email     string
	CompanyID CompanyID

	// Profile is nil until the owner saves it for the first time.
	Profile              *Profile
	ProfileSetupComplete bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
