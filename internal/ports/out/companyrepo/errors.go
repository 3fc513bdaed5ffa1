package companyrepo

import "errors"

var (
	// ErrNotFound indicates the requested company does not exist.
	ErrNotFound = errors.New("company not found")

	// ErrAlreadyExists indicates a company already exists with the provided ID.
	ErrAlreadyExists = errors.New("company already exists")
)
