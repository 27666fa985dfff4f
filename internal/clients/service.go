package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/internal/ledger"
	"github.com/stantonsupply/backoffice/internal/locks"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

const ledgerLockTTL = 30 * time.Second

// Service manages clients and their declared opening balances.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, params pagination.Params) ([]models.Client, pagination.Meta, error)
	UpdateOpeningBalance(ctx context.Context, input UpdateOpeningBalanceInput) (*models.Client, error)
}

// CreateClientInput captures the data needed to register a client.
type CreateClientInput struct {
	Name                string
	Phone               *string
	Address             *string
	OpeningBalanceCents int
	OpeningBalanceType  enums.BalanceType
}

// UpdateOpeningBalanceInput redeclares a client's opening balance. The
// ledger records the signed delta as an adjustment.
type UpdateOpeningBalanceInput struct {
	ClientID            uuid.UUID
	OpeningBalanceCents int
	OpeningBalanceType  enums.BalanceType
}

// txRunner runs fn inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// lockStore is the Redis surface needed for per-client serialization.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

type service struct {
	repo      Repository
	ledgerSvc ledger.Service
	runner    txRunner
	locker    lockStore
}

// NewService wires a client service with its dependencies.
func NewService(repo Repository, ledgerSvc ledger.Service, runner txRunner, locker lockStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locker == nil {
		return nil, fmt.Errorf("lock store required")
	}
	return &service{repo: repo, ledgerSvc: ledgerSvc, runner: runner, locker: locker}, nil
}

func signedBalance(cents int, balanceType enums.BalanceType) int {
	if balanceType == enums.BalanceTypeCredit {
		return -cents
	}
	return cents
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if input.OpeningBalanceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening balance must not be negative")
	}
	balanceType := input.OpeningBalanceType
	if balanceType == "" {
		balanceType = enums.BalanceTypeDebit
	}
	if !balanceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid balance type %q", balanceType))
	}

	opening := signedBalance(input.OpeningBalanceCents, balanceType)
	client := &models.Client{
		ID:                  uuid.New(),
		Name:                name,
		Phone:               input.Phone,
		Address:             input.Address,
		OpeningBalanceCents: input.OpeningBalanceCents,
		OpeningBalanceType:  balanceType,
		BalanceCents:        opening,
	}

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, client); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating client")
		}
		if input.OpeningBalanceCents == 0 {
			return nil
		}
		// The opening entry carries the declared balance itself, so its
		// snapshot starts from zero rather than the opening fallback.
		entry := &models.LedgerEntry{
			ClientID:          client.ID,
			Type:              enums.LedgerEntryTypeOpening,
			BalanceAfterCents: opening,
			Description:       "opening balance",
		}
		if balanceType == enums.BalanceTypeCredit {
			entry.CreditCents = input.OpeningBalanceCents
		} else {
			entry.DebitCents = input.OpeningBalanceCents
		}
		if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording opening balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	client, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading client")
	}
	return client, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Client, pagination.Meta, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing clients")
	}
	return rows, pagination.NewMeta(params, total), nil
}

func (s *service) UpdateOpeningBalance(ctx context.Context, input UpdateOpeningBalanceInput) (*models.Client, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if input.OpeningBalanceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening balance must not be negative")
	}
	if !input.OpeningBalanceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid balance type %q", input.OpeningBalanceType))
	}

	var updated *models.Client
	lockKey := s.locker.LockKey("client", input.ClientID.String())
	err := locks.WithLock(ctx, s.locker, lockKey, ledgerLockTTL, func(ctx context.Context) error {
		return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			client, err := repo.GetByID(ctx, input.ClientID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading client")
			}

			oldSigned := signedBalance(client.OpeningBalanceCents, client.OpeningBalanceType)
			newSigned := signedBalance(input.OpeningBalanceCents, input.OpeningBalanceType)
			delta := newSigned - oldSigned

			if delta != 0 {
				appendInput := ledger.AppendInput{
					ClientID:    input.ClientID,
					Type:        enums.LedgerEntryTypeAdjustment,
					Description: "opening balance adjustment",
				}
				if delta > 0 {
					appendInput.DebitCents = delta
				} else {
					appendInput.CreditCents = -delta
				}
				if _, err := s.ledgerSvc.Append(ctx, tx, appendInput); err != nil {
					return err
				}
			}

			client.OpeningBalanceCents = input.OpeningBalanceCents
			client.OpeningBalanceType = input.OpeningBalanceType
			if delta != 0 {
				client.BalanceCents += delta
			}
			if err := repo.Update(ctx, client); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating client")
			}
			updated = client
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
