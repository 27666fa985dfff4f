package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// Service appends to and reads from client financial ledgers. Callers
// that append must serialize per client (internal/locks) so running
// balance snapshots stay strictly ordered.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error)
	RunningBalance(ctx context.Context, clientID uuid.UUID) (int, error)
	Statement(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*Statement, error)
}

// AppendInput captures one ledger mutation. Exactly one of DebitCents
// or CreditCents should be positive.
type AppendInput struct {
	ClientID    uuid.UUID
	Type        enums.LedgerEntryType
	ReferenceID *uuid.UUID
	DebitCents  int
	CreditCents int
	Description string
}

// Statement is a client's ledger view: opening balance, totals, and a
// page of chronological entries.
type Statement struct {
	ClientID            uuid.UUID            `json:"client_id"`
	OpeningBalanceCents int                  `json:"opening_balance_cents"`
	TotalDebitCents     int                  `json:"total_debit_cents"`
	TotalCreditCents    int                  `json:"total_credit_cents"`
	BalanceCents        int                  `json:"balance_cents"`
	Entries             []models.LedgerEntry `json:"entries"`
	Pagination          pagination.Meta      `json:"pagination"`
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// signedOpeningBalance maps the declared opening balance onto the
// signed convention: positive means the client owes the business.
func signedOpeningBalance(client *models.Client) int {
	if client.OpeningBalanceType == enums.BalanceTypeCredit {
		return -client.OpeningBalanceCents
	}
	return client.OpeningBalanceCents
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}
	if input.DebitCents < 0 || input.CreditCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger amounts must not be negative")
	}
	if input.DebitCents == 0 && input.CreditCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger entry requires a debit or credit amount")
	}

	repo := s.repo.WithTx(tx)

	base, err := s.baseBalance(ctx, repo, input.ClientID)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ClientID:          input.ClientID,
		Type:              input.Type,
		ReferenceID:       input.ReferenceID,
		DebitCents:        input.DebitCents,
		CreditCents:       input.CreditCents,
		BalanceAfterCents: base + input.DebitCents - input.CreditCents,
		Description:       input.Description,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending ledger entry")
	}

	// Keep the cached balance on the client row in step with the ledger.
	if err := repo.UpdateClientBalance(ctx, input.ClientID, entry.BalanceAfterCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "caching client balance")
	}

	return entry, nil
}

func (s *service) baseBalance(ctx context.Context, repo Repository, clientID uuid.UUID) (int, error) {
	last, err := repo.LastEntry(ctx, clientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading last ledger entry")
	}
	if last != nil {
		return last.BalanceAfterCents, nil
	}

	client, err := repo.GetClient(ctx, clientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading client")
	}
	return signedOpeningBalance(client), nil
}

func (s *service) RunningBalance(ctx context.Context, clientID uuid.UUID) (int, error) {
	if clientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	base, err := s.baseBalance(ctx, s.repo, clientID)
	if err != nil {
		return 0, err
	}
	return base, nil
}

func (s *service) Statement(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*Statement, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}

	client, err := s.repo.GetClient(ctx, clientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading client")
	}

	entries, total, err := s.repo.List(ctx, clientID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing ledger entries")
	}

	totalDebit, totalCredit, err := s.repo.Totals(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing ledger entries")
	}

	balance, err := s.baseBalance(ctx, s.repo, clientID)
	if err != nil {
		return nil, err
	}

	return &Statement{
		ClientID:            clientID,
		OpeningBalanceCents: signedOpeningBalance(client),
		TotalDebitCents:     totalDebit,
		TotalCreditCents:    totalCredit,
		BalanceCents:        balance,
		Entries:             entries,
		Pagination:          pagination.NewMeta(params, total),
	}, nil
}
