package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/finix/internal/auth"
	"github.com/Dan9191/finix/internal/integrations/camt"
	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthenticated means the request carries no authenticated identity
	ErrUnauthenticated = errors.New("unauthorized user")
	// ErrNotFound means the target record does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the target record exists but belongs to another user
	ErrForbidden = errors.New("forbidden")
	// ErrValidation means the caller supplied malformed input
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials means login failed
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes malformed input. It matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// LookupError reports a missing or foreign record. Both read the same to
// callers so the existence of other users' records is not revealed.
type LookupError struct {
	Entity string
	kind   error
}

func (e *LookupError) Error() string { return e.Entity + " not found" }

func (e *LookupError) Unwrap() error { return e.kind }

func notFound(entity string) error {
	return &LookupError{Entity: entity, kind: ErrNotFound}
}

func forbidden(entity string) error {
	return &LookupError{Entity: entity, kind: ErrForbidden}
}

// Notifier delivers user-facing notifications
type Notifier interface {
	SendBudgetAlert(to string, alert models.BudgetAlert) error
	SendMonthlyReport(to string, report models.MonthlyReport) error
}

// InsightGenerator produces short advice lines from a month of statistics
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, stats models.MonthlyStats, month string) []string
}

// ReceiptScanner extracts transaction details from a receipt image
type ReceiptScanner interface {
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.ScannedReceipt, error)
}

// Options carries the optional collaborators of a Service
type Options struct {
	Tokens         *auth.Tokens
	Notifier       Notifier
	Insights       InsightGenerator
	Scanner        ReceiptScanner
	Statements     *camt.Parser
	AlertThreshold decimal.Decimal
	Now            func() time.Time
}

// Service handles business logic
type Service struct {
	store          repository.Store
	log            *logrus.Logger
	tokens         *auth.Tokens
	notifier       Notifier
	insights       InsightGenerator
	scanner        ReceiptScanner
	statements     *camt.Parser
	alertThreshold decimal.Decimal
	now            func() time.Time
}

// NewService initializes a new service
func NewService(store repository.Store, log *logrus.Logger, opts Options) *Service {
	s := &Service{
		store:          store,
		log:            log,
		tokens:         opts.Tokens,
		notifier:       opts.Notifier,
		insights:       opts.Insights,
		scanner:        opts.Scanner,
		statements:     opts.Statements,
		alertThreshold: opts.AlertThreshold,
		now:            opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.statements == nil {
		s.statements = camt.NewParser(log)
	}
	if s.alertThreshold.IsZero() {
		s.alertThreshold = decimal.NewFromInt(85)
	}
	return s
}

func currentUser(ctx context.Context) (string, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// ownedAccount loads accountID and checks it belongs to userID
func (s *Service) ownedAccount(ctx context.Context, q repository.Querier, userID, accountID string) (*models.Account, error) {
	account, err := q.FindAccountByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("account")
	}
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		s.log.Warnf("User %s requested account %s owned by another user", userID, accountID)
		return nil, forbidden("account")
	}
	return account, nil
}
