package domain

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// AccountID is an internal identifier for an account record.
type AccountID string

// CompanyID is an internal identifier for a company record.
type CompanyID string
