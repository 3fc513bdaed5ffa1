package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	clockport "github.com/cardshare/digital-card-api/internal/ports/out/clock"
)

type Service struct {
	accounts accountrepo.Repository
	clk      clockport.Clock
	log      *zap.Logger
}

func NewService(accounts accountrepo.Repository, clk clockport.Clock, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{accounts: accounts, clk: clk, log: log}
}

func (s *Service) GetMyProfile(ctx context.Context, subject domain.SubjectID) (ProfileView, error) {
	a, err := s.getAccount(ctx, subject)
	if err != nil {
		return ProfileView{}, err
	}
	if a.Profile == nil {
		return ProfileView{}, &Error{
			Status:  404,
			Code:    "PROFILE_NOT_SET_UP",
			Message: "The profile has not been set up yet.",
		}
	}
	return ProfileView{Profile: a.Profile.Clone(), ProfileSetupComplete: a.ProfileSetupComplete}, nil
}

// SaveMyProfile replaces the caller's profile and marks profile setup complete.
func (s *Service) SaveMyProfile(ctx context.Context, subject domain.SubjectID, in SaveProfileInput) (ProfileView, error) {
	a, err := s.getAccount(ctx, subject)
	if err != nil {
		return ProfileView{}, err
	}

	links, err := socialLinksFromInput(in.SocialLinks)
	if err != nil {
		return ProfileView{}, err
	}
	p := domain.Profile{
		FirstName:        strings.TrimSpace(in.FirstName),
		MiddleName:       strings.TrimSpace(in.MiddleName),
		LastName:         strings.TrimSpace(in.LastName),
		JobTitle:         strings.TrimSpace(in.JobTitle),
		CompanyName:      strings.TrimSpace(in.CompanyName),
		ContactEmail:     strings.TrimSpace(in.ContactEmail),
		ContactPhone:     strings.TrimSpace(in.ContactPhone),
		ContactTelephone: strings.TrimSpace(in.ContactTelephone),
		Address:          strings.TrimSpace(in.Address),
		GoogleMapQuery:   strings.TrimSpace(in.GoogleMapQuery),
		DateOfBirth:      cloneTimePtr(in.DateOfBirth),
		SocialLinks:      links,
		ProfilePicture:   strings.TrimSpace(in.ProfilePicture),
	}
	return s.store(ctx, a, p)
}

// UpdateMyProfile applies a partial update on top of the caller's current profile.
func (s *Service) UpdateMyProfile(ctx context.Context, subject domain.SubjectID, in UpdateProfileInput) (ProfileView, error) {
	a, err := s.getAccount(ctx, subject)
	if err != nil {
		return ProfileView{}, err
	}

	var p domain.Profile
	if a.Profile != nil {
		p = a.Profile.Clone()
	}

	if in.FirstName.IsNull() {
		return ProfileView{}, validationError("firstName", "cannot be null")
	}
	applyString(&p.FirstName, in.FirstName)
	applyString(&p.MiddleName, in.MiddleName)
	applyString(&p.LastName, in.LastName)
	applyString(&p.JobTitle, in.JobTitle)
	applyString(&p.CompanyName, in.CompanyName)
	applyString(&p.ContactEmail, in.ContactEmail)
	applyString(&p.ContactPhone, in.ContactPhone)
	applyString(&p.ContactTelephone, in.ContactTelephone)
	applyString(&p.Address, in.Address)
	applyString(&p.GoogleMapQuery, in.GoogleMapQuery)
	applyString(&p.ProfilePicture, in.ProfilePicture)

	if in.DateOfBirth.IsSpecified() {
		if in.DateOfBirth.IsNull() {
			p.DateOfBirth = nil
		} else {
			d := in.DateOfBirth.Value()
			p.DateOfBirth = &d
		}
	}

	if len(in.SocialLinks) > 0 {
		patch := make(map[string]string, len(in.SocialLinks))
		for platform, v := range p.SocialLinks {
			patch[string(platform)] = v
		}
		for platform, o := range in.SocialLinks {
			switch {
			case !o.IsSpecified():
			case o.IsNull():
				patch[platform] = ""
			default:
				patch[platform] = o.Value()
			}
		}
		links, err := socialLinksFromInput(patch)
		if err != nil {
			return ProfileView{}, err
		}
		p.SocialLinks = links
	}

	return s.store(ctx, a, p)
}

func (s *Service) store(ctx context.Context, a domain.Account, p domain.Profile) (ProfileView, error) {
	if err := validateProfile(p); err != nil {
		return ProfileView{}, err
	}
	p.FullName = domain.JoinFullName(p.FirstName, p.MiddleName, p.LastName)
	p.SocialLinks = p.SocialLinks.Complete()

	a.Profile = &p
	a.ProfileSetupComplete = true
	a.UpdatedAt = s.clk.Now()
	if err := s.accounts.Update(ctx, a); err != nil {
		return ProfileView{}, fmt.Errorf("update account %s: %w", a.ID, err)
	}
	s.log.Debug("profile saved", zap.String("accountId", string(a.ID)))
	return ProfileView{Profile: p.Clone(), ProfileSetupComplete: true}, nil
}

func (s *Service) getAccount(ctx context.Context, subject domain.SubjectID) (domain.Account, error) {
	a, err := s.accounts.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, &Error{
				Status:  404,
				Code:    "ACCOUNT_NOT_PROVISIONED",
				Message: "No account exists for the authenticated subject.",
			}
		}
		return domain.Account{}, err
	}
	return a, nil
}

const nameSlugSeparator = "-"

func validateProfile(p domain.Profile) error {
	if p.FirstName == "" {
		return validationError("firstName", "must be non-empty")
	}
	// Name parts become the hyphen-joined card slug.
	for _, f := range []struct{ field, value string }{
		{"firstName", p.FirstName},
		{"middleName", p.MiddleName},
		{"lastName", p.LastName},
	} {
		if strings.Contains(f.value, nameSlugSeparator) {
			return validationError(f.field, "must not contain '-'")
		}
	}
	if p.MiddleName != "" && p.LastName == "" {
		return validationError("middleName", "requires lastName")
	}
	if p.ContactEmail != "" {
		addr, err := mail.ParseAddress(p.ContactEmail)
		if err != nil {
			return validationError("contactEmail", err.Error())
		}
		if addr.Address != p.ContactEmail {
			return validationError("contactEmail", "must be a bare email address")
		}
	}
	return nil
}

func socialLinksFromInput(in map[string]string) (domain.SocialLinks, error) {
	out := domain.SocialLinks{}
	// Sorted so validation errors are reported deterministically.
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		platform := domain.SocialPlatform(k)
		if !platform.IsKnown() {
			return nil, validationError("socialLinks."+k, "unknown platform")
		}
		v := strings.TrimSpace(in[k])
		if v == "" {
			continue
		}
		if err := validateLink(v); err != nil {
			return nil, validationError("socialLinks."+k, err.Error())
		}
		out[platform] = v
	}
	return out.Complete(), nil
}

func validateLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

func applyString(dst *string, o Optional[string]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = ""
		return
	}
	*dst = strings.TrimSpace(o.Value())
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func validationError(field, reason string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: reason},
	}
}
