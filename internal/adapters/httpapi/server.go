package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cardshare/digital-card-api/internal/app/accounts"
	"github.com/cardshare/digital-card-api/internal/app/cards"
	"github.com/cardshare/digital-card-api/internal/app/profiles"
	"github.com/cardshare/digital-card-api/internal/domain"
	platformclock "github.com/cardshare/digital-card-api/internal/platform/clock"
	clockport "github.com/cardshare/digital-card-api/internal/ports/out/clock"
	"github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

const (
	profilesMeRoute = "/profiles/me"

	// Logos arrive as data URLs, so bodies can be sizeable.
	maxBodyBytes = 8 << 20
)

// Server is the HTTP adapter over the application services.
type Server struct {
	Accounts *accounts.Service
	Profiles *profiles.Service
	Cards    *cards.Service
	Idem     idempotency.Store
	Clock    clockport.Clock
	Log      *zap.Logger
}

func NewServer(accountsSvc *accounts.Service, profilesSvc *profiles.Service, cardsSvc *cards.Service, idem idempotency.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Accounts: accountsSvc,
		Profiles: profilesSvc,
		Cards:    cardsSvc,
		Idem:     idem,
		Clock:    platformclock.NewSystemClock(),
		Log:      log,
	}
}

func (s *Server) CreateCompany(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body CreateCompanyRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	email, _ := EmailFromContext(r.Context())
	if body.Email != nil {
		email = string(*body.Email)
	}

	v, err := s.Accounts.Signup(r.Context(), domain.SubjectID(sub), accounts.SignupInput{
		Email:       email,
		CompanyName: body.CompanyName,
		Logo:        body.Logo,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponseFromView(v))
}

func (s *Server) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	v, err := s.Accounts.GetMyAccount(r.Context(), domain.SubjectID(sub))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponseFromView(v))
}

func (s *Server) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	v, err := s.Profiles.GetMyProfile(r.Context(), domain.SubjectID(sub))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponseFromView(v))
}

func (s *Server) SaveMyProfile(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body SaveProfileRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	v, err := s.Profiles.SaveMyProfile(r.Context(), domain.SubjectID(sub), saveProfileInputFromRequest(body))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponseFromView(v))
}

func (s *Server) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub, ok := SubjectFromContext(ctx)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body UpdateProfileRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	// Idempotency handling:
	// - Replay if same actor+key+route+bodyHash
	// - Reject if same actor+key+route with different bodyHash (409)
	bodyHash, err := hashBody(canonicalUpdateProfileRequest(body))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(strings.TrimSpace(r.Header.Get("Idempotency-Key"))),
		Subject:  domain.SubjectID(sub),
		Method:   http.MethodPatch,
		Route:    profilesMeRoute,
		BodyHash: "",
	}
	replay, conflict, err := s.idempotencyLookup(ctx, metaFP, bodyHash)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if conflict {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return
	}
	if replay != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(replay)
		return
	}

	v, err := s.Profiles.UpdateMyProfile(ctx, domain.SubjectID(sub), updateProfileInputFromRequest(body))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	b, err := json.Marshal(profileResponseFromView(v))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	b = append(b, '\n')
	s.idempotencyStore(ctx, metaFP, bodyHash, b)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) GetMyCardURL(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	v, err := s.Profiles.GetMyProfile(r.Context(), domain.SubjectID(sub))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	card, err := s.Cards.OwnCard(v.Profile)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CardURLResponse{
		CompanyName: card.Profile.CompanyName,
		Slug:        card.Slug,
		CardUrl:     card.URL,
	})
}

func (s *Server) GetCard(w http.ResponseWriter, r *http.Request) {
	company, slug := pathParam(r, "companyName"), pathParam(r, "slug")
	card, found, err := s.Cards.Lookup(r.Context(), company, slug)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no profile matches this card address", nil)
		return
	}
	writeJSON(w, http.StatusOK, CardResponse{Card: CardBody{
		Profile: publicProfileBodyFromDomain(card.Profile),
		Slug:    card.Slug,
		CardUrl: card.URL,
	}})
}

func (s *Server) GetCardVCard(w http.ResponseWriter, r *http.Request) {
	company, slug := pathParam(r, "companyName"), pathParam(r, "slug")

	// The browser is the host here: the saved file becomes the download and the
	// clipboard payload travels back in a header for the page to copy.
	host := &downloadHost{}
	res, err := s.Cards.ExportVCard(r.Context(), company, slug, host, host)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if res.SaveErr != nil {
		s.writeServiceError(w, r, res.SaveErr)
		return
	}

	filename, contentType, data, phone := host.result()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if phone != "" {
		w.Header().Set("X-Contact-Phone", phone)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) GetCardQRCode(w http.ResponseWriter, r *http.Request) {
	company, slug := pathParam(r, "companyName"), pathParam(r, "slug")
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid size",
				map[string]any{"size": "must be an integer"})
			return
		}
		size = n
	}
	png, err := s.Cards.QRCode(r.Context(), company, slug, size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing request body", nil)
		return false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		msg := "missing request body"
		if err != io.EOF {
			msg = "invalid request body"
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg,
			map[string]any{"body": err.Error()})
		return false
	}
	return true
}

// idempotencyLookup records the body hash for a new key and returns the stored response
// for a repeated request. A key reused with another body reports conflict.
func (s *Server) idempotencyLookup(ctx context.Context, metaFP idempotency.Fingerprint, bodyHash string) (replay []byte, conflict bool, err error) {
	if s.Idem == nil || metaFP.Key == "" {
		return nil, false, nil
	}
	meta, ok, err := s.Idem.Get(ctx, metaFP)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if string(meta.Body) != bodyHash {
			return nil, true, nil
		}
	} else if err := s.Idem.Put(ctx, metaFP, idempotency.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte(bodyHash),
		CreatedAt:   s.Clock.Now().UTC(),
	}); err != nil {
		s.Log.Warn("idempotency key not recorded", zap.Error(err))
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	rec, ok, err := s.Idem.Get(ctx, respFP)
	if err != nil {
		return nil, false, err
	}
	if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
		return rec.Body, false, nil
	}
	return nil, false, nil
}

// idempotencyStore saves a successful response for replay.
func (s *Server) idempotencyStore(ctx context.Context, metaFP idempotency.Fingerprint, bodyHash string, body []byte) {
	if s.Idem == nil || metaFP.Key == "" {
		return
	}
	respFP := metaFP
	respFP.BodyHash = bodyHash
	if err := s.Idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        body,
		CreatedAt:   s.Clock.Now().UTC(),
	}); err != nil {
		s.Log.Warn("idempotent response not recorded", zap.Error(err))
	}
}

func hashBody(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash request body: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// pathParam returns a decoded route parameter. chi matches on the escaped path when the
// request carries one, e.g. for company names containing "/".
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// downloadHost captures what the exporter hands to its host so it can be written
// back as an HTTP download.
type downloadHost struct {
	mu          sync.Mutex
	filename    string
	contentType string
	data        []byte
	phone       string
}

func (h *downloadHost) Save(_ context.Context, filename string, contentType string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filename, h.contentType, h.data = filename, contentType, data
	return nil
}

func (h *downloadHost) Copy(_ context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phone = text
	return nil
}

func (h *downloadHost) result() (filename, contentType string, data []byte, phone string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filename, h.contentType, h.data, h.phone
}
