package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	clockport "github.com/cardshare/digital-card-api/internal/ports/out/clock"
	"github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
)

type Service struct {
	accounts  accountrepo.Repository
	companies companyrepo.Repository
	clk       clockport.Clock
	log       *zap.Logger

	newAccountID func() domain.AccountID
	newCompanyID func() domain.CompanyID
}

func NewService(accounts accountrepo.Repository, companies companyrepo.Repository, clk clockport.Clock, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		accounts:  accounts,
		companies: companies,
		clk:       clk,
		log:       log,
		newAccountID: func() domain.AccountID {
			return domain.AccountID(uuid.NewString())
		},
		newCompanyID: func() domain.CompanyID {
			return domain.CompanyID(uuid.NewString())
		},
	}
}

// Signup creates a company and the caller's account bound to it.
func (s *Service) Signup(ctx context.Context, subject domain.SubjectID, in SignupInput) (AccountView, error) {
	if _, err := s.accounts.GetBySubject(ctx, subject); err == nil {
		return AccountView{}, accountExistsError()
	} else if !errors.Is(err, accountrepo.ErrNotFound) {
		return AccountView{}, err
	}

	companyName := domain.NormalizeHumanName(in.CompanyName)
	logo := strings.TrimSpace(in.Logo)
	if companyName == "" || logo == "" {
		details := map[string]any{}
		if companyName == "" {
			details["companyName"] = "must be non-empty"
		}
		if logo == "" {
			details["logo"] = "must be non-empty"
		}
		return AccountView{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "please provide both a company name and logo",
			Details: details,
		}
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return AccountView{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid email",
			Details: map[string]any{"email": err.Error()},
		}
	}

	now := s.clk.Now()
	c := domain.Company{
		ID:        s.newCompanyID(),
		Name:      companyName,
		Logo:      logo,
		CreatedBy: email,
		CreatedAt: now,
	}
	if err := s.companies.Create(ctx, c); err != nil {
		return AccountView{}, fmt.Errorf("create company: %w", err)
	}

	a := domain.Account{
		ID:        s.newAccountID(),
		Subject:   subject,
		Email:     email,
		CompanyID: c.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, accountrepo.ErrSubjectAlreadyBound) {
			return AccountView{}, accountExistsError()
		}
		return AccountView{}, err
	}

	s.log.Info("account created",
		zap.String("accountId", string(a.ID)),
		zap.String("companyId", string(c.ID)),
	)
	return AccountView{Account: a, Company: c}, nil
}

func (s *Service) GetMyAccount(ctx context.Context, subject domain.SubjectID) (AccountView, error) {
	a, err := s.accounts.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return AccountView{}, notProvisionedError()
		}
		return AccountView{}, err
	}
	c, err := s.companies.GetByID(ctx, a.CompanyID)
	if err != nil {
		return AccountView{}, fmt.Errorf("load company %s: %w", a.CompanyID, err)
	}
	return AccountView{Account: a, Company: c}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func accountExistsError() *Error {
	return &Error{
		Status:  409,
		Code:    "ACCOUNT_ALREADY_EXISTS",
		Message: "An account already exists for the authenticated subject.",
	}
}

func notProvisionedError() *Error {
	return &Error{
		Status:  404,
		Code:    "ACCOUNT_NOT_PROVISIONED",
		Message: "No account exists for the authenticated subject.",
	}
}
