package httpapi

import (
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/cardshare/digital-card-api/internal/app/accounts"
	"github.com/cardshare/digital-card-api/internal/app/profiles"
	"github.com/cardshare/digital-card-api/internal/domain"
)

type CreateCompanyRequest struct {
	CompanyName string `json:"companyName"`
	Logo        string `json:"logo"`
	// Email defaults to the token's email claim.
	Email *openapi_types.Email `json:"email,omitempty"`
}

type AccountBody struct {
	AccountId            string    `json:"accountId"`
	Email                string    `json:"email"`
	CompanyId            string    `json:"companyId"`
	ProfileSetupComplete bool      `json:"profileSetupComplete"`
	CreatedAt            time.Time `json:"createdAt"`
}

type CompanyBody struct {
	CompanyId string    `json:"companyId"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type AccountResponse struct {
	Account AccountBody `json:"account"`
	Company CompanyBody `json:"company"`
}

// PublicProfileBody is what an anonymous card visitor sees.
type PublicProfileBody struct {
	FirstName        string            `json:"firstName"`
	MiddleName       string            `json:"middleName"`
	LastName         string            `json:"lastName"`
	FullName         string            `json:"fullName"`
	JobTitle         string            `json:"jobTitle"`
	CompanyName      string            `json:"companyName"`
	ContactEmail     string            `json:"contactEmail"`
	ContactPhone     string            `json:"contactPhone"`
	ContactTelephone string            `json:"contactTelephone"`
	Address          string            `json:"address"`
	GoogleMapQuery   string            `json:"googleMapQuery"`
	SocialLinks      map[string]string `json:"socialLinks"`
	ProfilePicture   string            `json:"profilePicture"`
}

// ProfileBody is the owner's view, which adds private fields.
type ProfileBody struct {
	PublicProfileBody
	DateOfBirth nullable.Nullable[openapi_types.Date] `json:"dateOfBirth"`
}

type ProfileResponse struct {
	Profile              ProfileBody `json:"profile"`
	ProfileSetupComplete bool        `json:"profileSetupComplete"`
}

// SaveProfileRequest is the PUT body. Omitted strings are stored as "".
type SaveProfileRequest struct {
	FirstName        string                                 `json:"firstName"`
	MiddleName       string                                 `json:"middleName,omitempty"`
	LastName         string                                 `json:"lastName,omitempty"`
	JobTitle         string                                 `json:"jobTitle,omitempty"`
	CompanyName      string                                 `json:"companyName,omitempty"`
	ContactEmail     nullable.Nullable[openapi_types.Email] `json:"contactEmail,omitempty"`
	ContactPhone     string                                 `json:"contactPhone,omitempty"`
	ContactTelephone string                                 `json:"contactTelephone,omitempty"`
	Address          string                                 `json:"address,omitempty"`
	GoogleMapQuery   string                                 `json:"googleMapQuery,omitempty"`
	DateOfBirth      nullable.Nullable[openapi_types.Date]  `json:"dateOfBirth,omitempty"`
	SocialLinks      map[string]string                      `json:"socialLinks,omitempty"`
	ProfilePicture   string                                 `json:"profilePicture,omitempty"`
}

// UpdateProfileRequest is the PATCH body: omitted fields are left alone, null clears.
type UpdateProfileRequest struct {
	FirstName        nullable.Nullable[string]              `json:"firstName,omitempty"`
	MiddleName       nullable.Nullable[string]              `json:"middleName,omitempty"`
	LastName         nullable.Nullable[string]              `json:"lastName,omitempty"`
	JobTitle         nullable.Nullable[string]              `json:"jobTitle,omitempty"`
	CompanyName      nullable.Nullable[string]              `json:"companyName,omitempty"`
	ContactEmail     nullable.Nullable[openapi_types.Email] `json:"contactEmail,omitempty"`
	ContactPhone     nullable.Nullable[string]              `json:"contactPhone,omitempty"`
	ContactTelephone nullable.Nullable[string]              `json:"contactTelephone,omitempty"`
	Address          nullable.Nullable[string]              `json:"address,omitempty"`
	GoogleMapQuery   nullable.Nullable[string]              `json:"googleMapQuery,omitempty"`
	DateOfBirth      nullable.Nullable[openapi_types.Date]  `json:"dateOfBirth,omitempty"`
	SocialLinks      map[string]nullable.Nullable[string]   `json:"socialLinks,omitempty"`
	ProfilePicture   nullable.Nullable[string]              `json:"profilePicture,omitempty"`
}

type CardBody struct {
	Profile PublicProfileBody `json:"profile"`
	Slug    string            `json:"slug"`
	CardUrl string            `json:"cardUrl"`
}

type CardResponse struct {
	Card CardBody `json:"card"`
}

type CardURLResponse struct {
	CompanyName string `json:"companyName"`
	Slug        string `json:"slug"`
	CardUrl     string `json:"cardUrl"`
}

func accountResponseFromView(v accounts.AccountView) AccountResponse {
	return AccountResponse{
		Account: AccountBody{
			AccountId:            string(v.Account.ID),
			Email:                v.Account.Email,
			CompanyId:            string(v.Account.CompanyID),
			ProfileSetupComplete: v.Account.ProfileSetupComplete,
			CreatedAt:            v.Account.CreatedAt.UTC(),
		},
		Company: CompanyBody{
			CompanyId: string(v.Company.ID),
			Name:      v.Company.Name,
			Logo:      v.Company.Logo,
			CreatedBy: v.Company.CreatedBy,
			CreatedAt: v.Company.CreatedAt.UTC(),
		},
	}
}

func profileBodyFromDomain(p domain.Profile) ProfileBody {
	return ProfileBody{
		PublicProfileBody: publicProfileBodyFromDomain(p),
		DateOfBirth:       nullableDate(p.DateOfBirth),
	}
}

func publicProfileBodyFromDomain(p domain.Profile) PublicProfileBody {
	out := PublicProfileBody{
		FirstName:        p.FirstName,
		MiddleName:       p.MiddleName,
		LastName:         p.LastName,
		FullName:         p.DisplayName(),
		JobTitle:         p.JobTitle,
		CompanyName:      p.CompanyName,
		ContactEmail:     p.ContactEmail,
		ContactPhone:     p.ContactPhone,
		ContactTelephone: p.ContactTelephone,
		Address:          p.Address,
		GoogleMapQuery:   p.GoogleMapQuery,
		SocialLinks:      make(map[string]string, len(domain.SocialPlatforms)),
		ProfilePicture:   p.ProfilePicture,
	}
	for _, platform := range domain.SocialPlatforms {
		out.SocialLinks[string(platform)] = p.SocialLinks[platform]
	}
	return out
}

func profileResponseFromView(v profiles.ProfileView) ProfileResponse {
	return ProfileResponse{
		Profile:              profileBodyFromDomain(v.Profile),
		ProfileSetupComplete: v.ProfileSetupComplete,
	}
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	if p == nil {
		return nullable.NewNullNullable[openapi_types.Date]()
	}
	return nullable.NewNullableWithValue(openapi_types.Date{Time: p.UTC()})
}

func saveProfileInputFromRequest(b SaveProfileRequest) profiles.SaveProfileInput {
	in := profiles.SaveProfileInput{
		FirstName:        b.FirstName,
		MiddleName:       b.MiddleName,
		LastName:         b.LastName,
		JobTitle:         b.JobTitle,
		CompanyName:      b.CompanyName,
		ContactPhone:     b.ContactPhone,
		ContactTelephone: b.ContactTelephone,
		Address:          b.Address,
		GoogleMapQuery:   b.GoogleMapQuery,
		SocialLinks:      b.SocialLinks,
		ProfilePicture:   b.ProfilePicture,
	}
	if v, err := b.ContactEmail.Get(); err == nil {
		in.ContactEmail = string(v)
	}
	if v, err := b.DateOfBirth.Get(); err == nil {
		d := v.Time
		in.DateOfBirth = &d
	}
	return in
}

func updateProfileInputFromRequest(b UpdateProfileRequest) profiles.UpdateProfileInput {
	in := profiles.UpdateProfileInput{
		FirstName:        optionalString(b.FirstName),
		MiddleName:       optionalString(b.MiddleName),
		LastName:         optionalString(b.LastName),
		JobTitle:         optionalString(b.JobTitle),
		CompanyName:      optionalString(b.CompanyName),
		ContactPhone:     optionalString(b.ContactPhone),
		ContactTelephone: optionalString(b.ContactTelephone),
		Address:          optionalString(b.Address),
		GoogleMapQuery:   optionalString(b.GoogleMapQuery),
		ProfilePicture:   optionalString(b.ProfilePicture),
	}
	switch {
	case !b.ContactEmail.IsSpecified():
	case b.ContactEmail.IsNull():
		in.ContactEmail = profiles.Null[string]()
	default:
		if v, err := b.ContactEmail.Get(); err == nil {
			in.ContactEmail = profiles.Some(string(v))
		}
	}
	switch {
	case !b.DateOfBirth.IsSpecified():
	case b.DateOfBirth.IsNull():
		in.DateOfBirth = profiles.Null[time.Time]()
	default:
		if v, err := b.DateOfBirth.Get(); err == nil {
			in.DateOfBirth = profiles.Some(v.Time)
		}
	}
	if len(b.SocialLinks) > 0 {
		in.SocialLinks = make(map[string]profiles.Optional[string], len(b.SocialLinks))
		for platform, v := range b.SocialLinks {
			in.SocialLinks[platform] = optionalString(v)
		}
	}
	return in
}

func optionalString(n nullable.Nullable[string]) profiles.Optional[string] {
	if !n.IsSpecified() {
		return profiles.Unspecified[string]()
	}
	if n.IsNull() {
		return profiles.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return profiles.Unspecified[string]()
	}
	return profiles.Some(v)
}

// canonicalUpdateProfileRequest trims string values so bodies that differ only in
// whitespace the service discards hash the same.
func canonicalUpdateProfileRequest(b UpdateProfileRequest) UpdateProfileRequest {
	canon := b
	for _, f := range []*nullable.Nullable[string]{
		&canon.FirstName, &canon.MiddleName, &canon.LastName, &canon.JobTitle,
		&canon.CompanyName, &canon.ContactPhone, &canon.ContactTelephone,
		&canon.Address, &canon.GoogleMapQuery, &canon.ProfilePicture,
	} {
		*f = trimNullable(*f)
	}
	if len(b.SocialLinks) > 0 {
		canon.SocialLinks = make(map[string]nullable.Nullable[string], len(b.SocialLinks))
		for k, v := range b.SocialLinks {
			canon.SocialLinks[k] = trimNullable(v)
		}
	}
	return canon
}

func trimNullable(n nullable.Nullable[string]) nullable.Nullable[string] {
	if !n.IsSpecified() || n.IsNull() {
		return n
	}
	v, err := n.Get()
	if err != nil {
		return n
	}
	return nullable.NewNullableWithValue(strings.TrimSpace(v))
}
