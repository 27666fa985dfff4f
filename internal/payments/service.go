// Package payments allocates lump client payments across outstanding
// order balances, oldest order first.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/internal/ledger"
	"github.com/stantonsupply/backoffice/internal/locks"
	"github.com/stantonsupply/backoffice/internal/orders"
	"github.com/stantonsupply/backoffice/internal/pricing"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/events"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/metrics"
)

const ledgerLockTTL = 30 * time.Second

// Service records client-level payments.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*AllocationResult, error)
}

// RecordPaymentInput is a lump payment against a client's account.
type RecordPaymentInput struct {
	Actor       orders.Actor
	ClientID    uuid.UUID
	Mode        enums.PaymentMode
	AmountCents int
	Note        *string
}

// AllocationResult reports how a payment landed: the ledger entry for
// the payment itself, every order it was applied to, and the client's
// balance after allocation.
type AllocationResult struct {
	Entry             *models.LedgerEntry `json:"entry"`
	UpdatedOrders     []models.Order      `json:"updated_orders"`
	FinalBalanceCents int                 `json:"final_balance_cents"`
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
	orderRepo orders.Repository
	ledgerSvc ledger.Service
	runner    txRunner
	locker    lockStore
	publisher events.Publisher
	domain    *metrics.DomainMetrics
	logg      *logger.Logger
}

// NewService wires a payment service with its dependencies.
func NewService(orderRepo orders.Repository, ledgerSvc ledger.Service, runner txRunner, locker lockStore, publisher events.Publisher, domain *metrics.DomainMetrics, logg *logger.Logger) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
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
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{
		orderRepo: orderRepo,
		ledgerSvc: ledgerSvc,
		runner:    runner,
		locker:    locker,
		publisher: publisher,
		domain:    domain,
		logg:      logg,
	}, nil
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*AllocationResult, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment mode %q", input.Mode))
	}

	started := time.Now()
	var result *AllocationResult
	lockKey := s.locker.LockKey("client", input.ClientID.String())
	err := locks.WithLock(ctx, s.locker, lockKey, ledgerLockTTL, func(ctx context.Context) error {
		return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
			allocated, err := s.allocate(ctx, tx, input)
			if err != nil {
				return err
			}
			result = allocated
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.domain.IncPaymentRecorded(input.Mode.String())
	s.domain.ObserveAllocationDuration(time.Since(started))
	s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeClientPaymentRecorded, map[string]any{
		"client_id":     input.ClientID.String(),
		"amount_cents":  input.AmountCents,
		"mode":          input.Mode.String(),
		"orders_paid":   len(result.UpdatedOrders),
		"final_balance": result.FinalBalanceCents,
	}))

	return result, nil
}

// allocate implements the FIFO walk. The payment first lands as an
// un-attributed credit; every slice matched to an order is added back
// as an order_adjustment debit so the running balance only keeps the
// unmatched remainder.
func (s *service) allocate(ctx context.Context, tx *gorm.DB, input RecordPaymentInput) (*AllocationResult, error) {
	description := "client payment"
	if input.Note != nil && *input.Note != "" {
		description = *input.Note
	}

	paymentEntry, err := s.ledgerSvc.Append(ctx, tx, ledger.AppendInput{
		ClientID:    input.ClientID,
		Type:        enums.LedgerEntryTypePayment,
		CreditCents: input.AmountCents,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	finalBalance := paymentEntry.BalanceAfterCents

	orderRepo := s.orderRepo.WithTx(tx)
	outstanding, err := orderRepo.ListOutstandingByClient(ctx, input.ClientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing outstanding orders")
	}

	remaining := input.AmountCents
	updated := make([]models.Order, 0, len(outstanding))
	for i := range outstanding {
		if remaining <= 0 {
			break
		}
		order := &outstanding[i]

		balance := order.BalanceCents()
		if balance <= 0 {
			continue
		}
		adjust := balance
		if remaining < adjust {
			adjust = remaining
		}

		order.PaidCents += adjust
		order.PaymentStatus = pricing.Status(order.PayableCents(), order.PaidCents)
		if err := orderRepo.Update(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order payment state")
		}
		if err := orderRepo.AddPayment(ctx, &models.OrderPayment{
			OrderID:     order.ID,
			Mode:        input.Mode,
			AmountCents: adjust,
			Reference:   input.Note,
			RecordedBy:  &input.Actor.UserID,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording order payment")
		}

		orderID := order.ID
		adjustmentEntry, err := s.ledgerSvc.Append(ctx, tx, ledger.AppendInput{
			ClientID:    input.ClientID,
			Type:        enums.LedgerEntryTypeOrderAdjustment,
			ReferenceID: &orderID,
			DebitCents:  adjust,
			Description: fmt.Sprintf("allocated to order %s", order.Code),
		})
		if err != nil {
			return nil, err
		}
		finalBalance = adjustmentEntry.BalanceAfterCents

		remaining -= adjust
		updated = append(updated, *order)
	}

	return &AllocationResult{
		Entry:             paymentEntry,
		UpdatedOrders:     updated,
		FinalBalanceCents: finalBalance,
	}, nil
}
