package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/api/responses"
	"github.com/stantonsupply/backoffice/api/validators"
	"github.com/stantonsupply/backoffice/internal/clients"
	"github.com/stantonsupply/backoffice/internal/ledger"
	"github.com/stantonsupply/backoffice/internal/payments"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

type clientCreateRequest struct {
	Name                string  `json:"name" validate:"required"`
	Phone               *string `json:"phone"`
	Address             *string `json:"address"`
	OpeningBalanceCents int     `json:"opening_balance_cents" validate:"min=0"`
	OpeningBalanceType  string  `json:"opening_balance_type"`
}

// ClientCreate registers a client, seeding the ledger when an opening
// balance is declared.
func ClientCreate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload clientCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balanceType := enums.BalanceTypeDebit
		if raw := strings.TrimSpace(payload.OpeningBalanceType); raw != "" {
			parsed, err := enums.ParseBalanceType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid opening_balance_type"))
				return
			}
			balanceType = parsed
		}

		created, err := svc.Create(r.Context(), clients.CreateClientInput{
			Name:                strings.TrimSpace(payload.Name),
			Phone:               payload.Phone,
			Address:             payload.Address,
			OpeningBalanceCents: payload.OpeningBalanceCents,
			OpeningBalanceType:  balanceType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, clientResponseFromModel(created))
	}
}

// ClientDetail returns one client with their cached running balance.
func ClientDetail(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.PathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Get(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clientResponseFromModel(client))
	}
}

// ClientList pages through clients ordered by name.
func ClientList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, meta, err := svc.List(r.Context(), pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]clientResponse, 0, len(results))
		for i := range results {
			items = append(items, clientResponseFromModel(&results[i]))
		}
		responses.WriteSuccess(w, map[string]any{"clients": items, "pagination": meta})
	}
}

type openingBalanceRequest struct {
	OpeningBalanceCents int    `json:"opening_balance_cents" validate:"min=0"`
	OpeningBalanceType  string `json:"opening_balance_type" validate:"required"`
}

// ClientUpdateOpeningBalance redeclares the opening balance; the delta
// lands in the ledger as an adjustment entry.
func ClientUpdateOpeningBalance(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.PathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload openingBalanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balanceType, err := enums.ParseBalanceType(payload.OpeningBalanceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid opening_balance_type"))
			return
		}

		updated, err := svc.UpdateOpeningBalance(r.Context(), clients.UpdateOpeningBalanceInput{
			ClientID:            clientID,
			OpeningBalanceCents: payload.OpeningBalanceCents,
			OpeningBalanceType:  balanceType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clientResponseFromModel(updated))
	}
}

// ClientLedger returns a paginated statement of the client's ledger.
func ClientLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.PathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statement, err := svc.Statement(r.Context(), clientID, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]ledgerEntryResponse, 0, len(statement.Entries))
		for i := range statement.Entries {
			entries = append(entries, ledgerEntryResponseFromModel(&statement.Entries[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"client_id":             statement.ClientID,
			"opening_balance_cents": statement.OpeningBalanceCents,
			"total_debit_cents":     statement.TotalDebitCents,
			"total_credit_cents":    statement.TotalCreditCents,
			"balance_cents":         statement.BalanceCents,
			"entries":               entries,
			"pagination":            statement.Pagination,
		})
	}
}

type recordPaymentRequest struct {
	Mode        string  `json:"mode" validate:"required"`
	AmountCents int     `json:"amount_cents" validate:"required,gt=0"`
	Note        *string `json:"note"`
}

// ClientRecordPayment takes a lump payment and allocates it across the
// client's outstanding orders, oldest first.
func ClientRecordPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, err := validators.PathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParsePaymentMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode"))
			return
		}

		result, err := svc.RecordPayment(r.Context(), payments.RecordPaymentInput{
			Actor:       actor,
			ClientID:    clientID,
			Mode:        mode,
			AmountCents: payload.AmountCents,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated := make([]orderResponse, 0, len(result.UpdatedOrders))
		for i := range result.UpdatedOrders {
			updated = append(updated, orderResponseFromModel(&result.UpdatedOrders[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"entry":               ledgerEntryResponseFromModel(result.Entry),
			"updated_orders":      updated,
			"final_balance_cents": result.FinalBalanceCents,
		})
	}
}

type clientResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Phone               *string           `json:"phone,omitempty"`
	Address             *string           `json:"address,omitempty"`
	OpeningBalanceCents int               `json:"opening_balance_cents"`
	OpeningBalanceType  enums.BalanceType `json:"opening_balance_type"`
	BalanceCents        int               `json:"balance_cents"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func clientResponseFromModel(m *models.Client) clientResponse {
	return clientResponse{
		ID:                  m.ID,
		Name:                m.Name,
		Phone:               m.Phone,
		Address:             m.Address,
		OpeningBalanceCents: m.OpeningBalanceCents,
		OpeningBalanceType:  m.OpeningBalanceType,
		BalanceCents:        m.BalanceCents,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type ledgerEntryResponse struct {
	ID                int64                 `json:"id"`
	ClientID          uuid.UUID             `json:"client_id"`
	Type              enums.LedgerEntryType `json:"type"`
	ReferenceID       *uuid.UUID            `json:"reference_id,omitempty"`
	DebitCents        int                   `json:"debit_cents"`
	CreditCents       int                   `json:"credit_cents"`
	BalanceAfterCents int                   `json:"balance_after_cents"`
	Description       string                `json:"description"`
	CreatedAt         time.Time             `json:"created_at"`
}

func ledgerEntryResponseFromModel(m *models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:                m.ID,
		ClientID:          m.ClientID,
		Type:              m.Type,
		ReferenceID:       m.ReferenceID,
		DebitCents:        m.DebitCents,
		CreditCents:       m.CreditCents,
		BalanceAfterCents: m.BalanceAfterCents,
		Description:       m.Description,
		CreatedAt:         m.CreatedAt,
	}
}
