// Package profiledoc converts profiles to and from the JSON document shape used by the
// document-style stores. Decoding is the store boundary: absent fields become "" and
// socialLinks always comes back with every known platform.
package profiledoc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardshare/digital-card-api/internal/domain"
)

const dateLayout = "2006-01-02"

type document struct {
	FirstName        string            `json:"firstName"`
	MiddleName       string            `json:"middleName,omitempty"`
	LastName         string            `json:"lastName"`
	FullName         string            `json:"fullName,omitempty"`
	CompanyName      string            `json:"companyName"`
	JobTitle         string            `json:"jobTitle,omitempty"`
	ContactPhone     string            `json:"contactPhone,omitempty"`
	ContactTelephone string            `json:"contactTelephone,omitempty"`
	ContactEmail     string            `json:"contactEmail,omitempty"`
	Address          string            `json:"address,omitempty"`
	GoogleMapQuery   string            `json:"googleMapQuery,omitempty"`
	DateOfBirth      string            `json:"dateOfBirth,omitempty"`
	SocialLinks      map[string]string `json:"socialLinks,omitempty"`
	ProfilePicture   string            `json:"profilePicture,omitempty"`

	// Keys written by earlier clients.
	LegacyContactTelphone string `json:"contactTelphone,omitempty"`
	LegacyGoogleMap       string `json:"googleMap,omitempty"`
}

// Encode marshals p as a JSON document.
func Encode(p domain.Profile) ([]byte, error) {
	d := document{
		FirstName:        p.FirstName,
		MiddleName:       p.MiddleName,
		LastName:         p.LastName,
		FullName:         p.FullName,
		CompanyName:      p.CompanyName,
		JobTitle:         p.JobTitle,
		ContactPhone:     p.ContactPhone,
		ContactTelephone: p.ContactTelephone,
		ContactEmail:     p.ContactEmail,
		Address:          p.Address,
		GoogleMapQuery:   p.GoogleMapQuery,
		ProfilePicture:   p.ProfilePicture,
	}
	if p.DateOfBirth != nil {
		d.DateOfBirth = p.DateOfBirth.UTC().Format(dateLayout)
	}
	if len(p.SocialLinks) > 0 {
		d.SocialLinks = make(map[string]string, len(p.SocialLinks))
		for k, v := range p.SocialLinks {
			if v != "" {
				d.SocialLinks[string(k)] = v
			}
		}
	}
	return json.Marshal(d)
}

// Decode unmarshals a JSON document into a fully defaulted profile.
func Decode(b []byte) (domain.Profile, error) {
	var d document
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile document: %w", err)
	}
	p := domain.Profile{
		FirstName:        d.FirstName,
		MiddleName:       d.MiddleName,
		LastName:         d.LastName,
		FullName:         d.FullName,
		CompanyName:      d.CompanyName,
		JobTitle:         d.JobTitle,
		ContactPhone:     d.ContactPhone,
		ContactTelephone: firstNonEmpty(d.ContactTelephone, d.LegacyContactTelphone),
		ContactEmail:     d.ContactEmail,
		Address:          d.Address,
		GoogleMapQuery:   firstNonEmpty(d.GoogleMapQuery, d.LegacyGoogleMap),
		ProfilePicture:   d.ProfilePicture,
	}
	if d.DateOfBirth != "" {
		t, err := time.Parse(dateLayout, d.DateOfBirth)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("decode profile dateOfBirth: %w", err)
		}
		p.DateOfBirth = &t
	}
	links := domain.SocialLinks{}
	for k, v := range d.SocialLinks {
		links[domain.SocialPlatform(k)] = v
	}
	p.SocialLinks = links.Complete()
	return p, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
