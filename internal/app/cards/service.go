package cards

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/cardshare/digital-card-api/internal/app/vcard"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	"github.com/cardshare/digital-card-api/internal/ports/out/hostenv"
	qrcodeport "github.com/cardshare/digital-card-api/internal/ports/out/qrcode"
)

const (
	// CardPathPrefix is the public route prefix of a card page.
	CardPathPrefix = "/card"

	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// PublicCard is a resolved profile together with its shareable address.
type PublicCard struct {
	Profile domain.Profile
	Slug    string
	URL     string
}

type Service struct {
	accounts accountrepo.Repository
	qr       qrcodeport.Encoder
	log      *zap.Logger

	// BaseURL prefixes public card URLs, e.g. "https://cards.example.com".
	BaseURL string
}

func NewService(accounts accountrepo.Repository, qr qrcodeport.Encoder, log *zap.Logger, baseURL string) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		accounts: accounts,
		qr:       qr,
		log:      log,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Lookup resolves a public card by company name and name slug.
//
// A card that does not exist is reported as found=false; malformed input is a 400 *Error.
func (s *Service) Lookup(ctx context.Context, companyName, slug string) (PublicCard, bool, error) {
	parts, err := ParseSlug(slug)
	if err != nil {
		if companyName == "" && slug == "" {
			return PublicCard{}, false, invalidInputError()
		}
		return PublicCard{}, false, &Error{
			Status:  400,
			Code:    "INVALID_SLUG",
			Message: "invalid name slug",
			Details: map[string]any{"slug": "must be first[-middle]-last"},
		}
	}

	profiles, err := s.accounts.ListProfilesByCompany(ctx, companyName)
	if err != nil {
		return PublicCard{}, false, err
	}
	p, found, err := ResolveProfile(companyName, parts, profiles)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return PublicCard{}, false, invalidInputError()
		}
		return PublicCard{}, false, err
	}
	if !found {
		return PublicCard{}, false, nil
	}
	if n := CountMatches(companyName, parts, profiles); n > 1 {
		s.log.Warn("duplicate profiles share a card slug; resolved card depends on store order",
			zap.String("company", companyName),
			zap.String("slug", slug),
			zap.Int("matches", n),
		)
	}
	return PublicCard{
		Profile: p,
		Slug:    slug,
		URL:     s.CardURL(companyName, slug),
	}, true, nil
}

// ExportVCard resolves a card and exports it through the given host environment.
func (s *Service) ExportVCard(ctx context.Context, companyName, slug string, saver hostenv.Saver, clipboard hostenv.Clipboard) (vcard.ExportResult, error) {
	card, err := s.mustLookup(ctx, companyName, slug)
	if err != nil {
		return vcard.ExportResult{}, err
	}
	res, err := vcard.NewExporter(saver, clipboard, s.log).Export(ctx, card.Profile)
	if err != nil {
		if errors.Is(err, vcard.ErrInsufficientContactData) {
			return vcard.ExportResult{}, &Error{
				Status:  422,
				Code:    "INSUFFICIENT_CONTACT_DATA",
				Message: "profile has no phone number or name to export",
			}
		}
		return vcard.ExportResult{}, err
	}
	return res, nil
}

// QRCode renders a PNG QR code pointing at the card's public URL.
func (s *Service) QRCode(ctx context.Context, companyName, slug string, size int) ([]byte, error) {
	if size == 0 {
		size = DefaultQRSize
	}
	if size < MinQRSize || size > MaxQRSize {
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid size",
			Details: map[string]any{"size": "must be between 64 and 1024"},
		}
	}
	card, err := s.mustLookup(ctx, companyName, slug)
	if err != nil {
		return nil, err
	}
	return s.qr.EncodePNG(card.URL, size)
}

// CardURL returns the public address of a card.
func (s *Service) CardURL(companyName, slug string) string {
	return s.BaseURL + CardPathPrefix + "/" + url.PathEscape(companyName) + "/" + url.PathEscape(slug)
}

// SlugFor returns the slug that resolves to p. It fails with ErrNotShareable when p has no
// company or when its name parts do not survive a ParseSlug round trip (a hyphen inside a
// part, or a middle name without a last name).
func SlugFor(p domain.Profile) (string, error) {
	if p.CompanyName == "" {
		return "", ErrNotShareable
	}
	want := NamePartsOf(p.FirstName, p.MiddleName, p.LastName)
	slug := want.String()
	got, err := ParseSlug(slug)
	if err != nil || got != want {
		return "", ErrNotShareable
	}
	return slug, nil
}

// OwnCard returns the public card of the caller's own profile.
func (s *Service) OwnCard(p domain.Profile) (PublicCard, error) {
	slug, err := SlugFor(p)
	if err != nil {
		details := map[string]any{"name": "must be first[-middle]-last without '-' inside a part"}
		if p.CompanyName == "" {
			details = map[string]any{"companyName": "must be set to share a card"}
		}
		return PublicCard{}, &Error{
			Status:  409,
			Code:    "CARD_NOT_SHAREABLE",
			Message: "profile cannot be reached through a public card address",
			Details: details,
		}
	}
	return PublicCard{Profile: p, Slug: slug, URL: s.CardURL(p.CompanyName, slug)}, nil
}

func (s *Service) mustLookup(ctx context.Context, companyName, slug string) (PublicCard, error) {
	card, found, err := s.Lookup(ctx, companyName, slug)
	if err != nil {
		return PublicCard{}, err
	}
	if !found {
		return PublicCard{}, &Error{
			Status:  404,
			Code:    "PROFILE_NOT_FOUND",
			Message: "no profile matches this card address",
		}
	}
	return card, nil
}

func invalidInputError() *Error {
	return &Error{
		Status:  400,
		Code:    "INVALID_INPUT",
		Message: "company name and name slug are required",
	}
}
