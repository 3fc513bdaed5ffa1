package cards

import "github.com/cardshare/digital-card-api/internal/domain"

// ResolveProfile returns the first profile, in the order supplied, whose natural key
// (companyName, firstName, middleName, lastName) equals the requested one.
//
// Comparison is exact and case-sensitive. A miss is reported as found=false with a nil
// error, and an empty profile set is always a miss. Otherwise ErrInvalidInput is returned
// when both companyName and parts.First are empty.
func ResolveProfile(companyName string, parts NameParts, profiles []domain.Profile) (domain.Profile, bool, error) {
	if len(profiles) == 0 {
		return domain.Profile{}, false, nil
	}
	if companyName == "" && parts.First == "" {
		return domain.Profile{}, false, ErrInvalidInput
	}
	for _, p := range profiles {
		if matches(companyName, parts, p) {
			return p, true, nil
		}
	}
	return domain.Profile{}, false, nil
}

// CountMatches reports how many profiles share the requested natural key.
// More than one means the resolved card depends on store iteration order.
func CountMatches(companyName string, parts NameParts, profiles []domain.Profile) int {
	n := 0
	for _, p := range profiles {
		if matches(companyName, parts, p) {
			n++
		}
	}
	return n
}

func matches(companyName string, parts NameParts, p domain.Profile) bool {
	return p.FirstName == parts.First &&
		p.MiddleName == parts.Middle &&
		p.LastName == parts.Last &&
		p.CompanyName == companyName
}
