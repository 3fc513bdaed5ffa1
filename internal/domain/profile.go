package domain

import "time"

// SocialPlatform names one of the fixed set of social link slots on a profile.
type SocialPlatform string

const (
	SocialLinkedIn   SocialPlatform = "linkedin"
	SocialTwitter    SocialPlatform = "twitter"
	SocialInstagram  SocialPlatform = "instagram"
	SocialFacebook   SocialPlatform = "facebook"
	SocialGitHub     SocialPlatform = "github"
	SocialYouTube    SocialPlatform = "youtube"
	SocialWebsite    SocialPlatform = "website"
	SocialREAProfile SocialPlatform = "reaProfile"
)

// SocialPlatforms lists every supported platform in display order.
var SocialPlatforms = []SocialPlatform{
	SocialLinkedIn,
	SocialTwitter,
	SocialInstagram,
	SocialFacebook,
	SocialGitHub,
	SocialYouTube,
	SocialWebsite,
	SocialREAProfile,
}

// IsKnown reports whether p is one of SocialPlatforms.
func (p SocialPlatform) IsKnown() bool {
	for _, known := range SocialPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// SocialLinks maps a platform to its URL. An empty string means unset.
type SocialLinks map[SocialPlatform]string

// Complete returns a copy holding exactly the known platforms, with unset slots as "".
func (l SocialLinks) Complete() SocialLinks {
	out := make(SocialLinks, len(SocialPlatforms))
	for _, p := range SocialPlatforms {
		out[p] = l[p]
	}
	return out
}

// Profile is a person's shareable contact identity, scoped to a company.
//
// Optional string fields are "" when unset; defaulting happens once in the
// store adapters so business logic never sees a missing field.
type Profile struct {
	FirstName  string
	MiddleName string
	LastName   string
	// FullName is derived from the name parts when the profile is saved.
	FullName string

	CompanyName string
	JobTitle    string

	ContactPhone     string
	ContactTelephone string
	ContactEmail     string

	Address        string
	GoogleMapQuery string

	DateOfBirth *time.Time // date-only semantics at the edges

	SocialLinks    SocialLinks
	ProfilePicture string
}

// DisplayName is FullName, or the joined name parts for records saved without one.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return JoinFullName(p.FirstName, p.MiddleName, p.LastName)
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	if p.DateOfBirth != nil {
		d := *p.DateOfBirth
		out.DateOfBirth = &d
	}
	if p.SocialLinks != nil {
		out.SocialLinks = make(SocialLinks, len(p.SocialLinks))
		for k, v := range p.SocialLinks {
			out.SocialLinks[k] = v
		}
	}
	return out
}
