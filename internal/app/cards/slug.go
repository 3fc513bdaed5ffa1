package cards

import "strings"

const slugSeparator = "-"

// NameParts is a name decomposed from a URL slug. Middle and Last are "" when the
// slug carries fewer parts.
type NameParts struct {
	First  string
	Middle string
	Last   string
}

// ParseSlug splits a hyphen-joined name slug into its parts.
//
// "john-q-smith" yields first/middle/last, "john-smith" first/last and "john" first only.
// An empty slug or one with more than three parts fails with ErrInvalidSlugFormat.
// The slug must already be URL-decoded; no trimming or case folding is applied.
func ParseSlug(slug string) (NameParts, error) {
	if slug == "" {
		return NameParts{}, ErrInvalidSlugFormat
	}
	parts := strings.Split(slug, slugSeparator)
	switch len(parts) {
	case 3:
		return NameParts{First: parts[0], Middle: parts[1], Last: parts[2]}, nil
	case 2:
		return NameParts{First: parts[0], Last: parts[1]}, nil
	case 1:
		return NameParts{First: parts[0]}, nil
	default:
		return NameParts{}, ErrInvalidSlugFormat
	}
}

// String joins the non-empty parts back into slug form.
func (n NameParts) String() string {
	out := make([]string, 0, 3)
	for _, p := range []string{n.First, n.Middle, n.Last} {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, slugSeparator)
}

// NamePartsOf returns the natural-key name parts of a stored profile.
func NamePartsOf(first, middle, last string) NameParts {
	return NameParts{First: first, Middle: middle, Last: last}
}
