package orders

import (
	"testing"

	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
)

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		name     string
		role     enums.ActorRole
		from, to enums.OrderStatus
		wantCode pkgerrors.Code
	}{
		{"admin ships pending", enums.ActorRoleAdmin, enums.OrderStatusPending, enums.OrderStatusShipped, ""},
		{"admin cancels delivered", enums.ActorRoleAdmin, enums.OrderStatusDelivered, enums.OrderStatusCancelled, ""},
		{"admin reopens cancelled", enums.ActorRoleAdmin, enums.OrderStatusCancelled, enums.OrderStatusPending, ""},
		{"admin moves backwards", enums.ActorRoleAdmin, enums.OrderStatusDelivered, enums.OrderStatusShipped, ""},
		{"delivery ships", enums.ActorRoleDelivery, enums.OrderStatusPending, enums.OrderStatusShipped, ""},
		{"delivery delivers", enums.ActorRoleDelivery, enums.OrderStatusShipped, enums.OrderStatusDelivered, ""},
		{"delivery completes", enums.ActorRoleDelivery, enums.OrderStatusDelivered, enums.OrderStatusCompleted, ""},
		{"delivery cannot cancel", enums.ActorRoleDelivery, enums.OrderStatusShipped, enums.OrderStatusCancelled, pkgerrors.CodeForbidden},
		{"delivery cannot reopen", enums.ActorRoleDelivery, enums.OrderStatusShipped, enums.OrderStatusPending, pkgerrors.CodeForbidden},
		{"completed is terminal for admin", enums.ActorRoleAdmin, enums.OrderStatusCompleted, enums.OrderStatusPending, pkgerrors.CodeStateConflict},
		{"completed is terminal for delivery", enums.ActorRoleDelivery, enums.OrderStatusCompleted, enums.OrderStatusDelivered, pkgerrors.CodeStateConflict},
		{"no self transition", enums.ActorRoleAdmin, enums.OrderStatusShipped, enums.OrderStatusShipped, pkgerrors.CodeStateConflict},
		{"invalid target", enums.ActorRoleAdmin, enums.OrderStatusPending, enums.OrderStatus("archived"), pkgerrors.CodeValidation},
		{"unknown role", enums.ActorRole("auditor"), enums.OrderStatusPending, enums.OrderStatusShipped, pkgerrors.CodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkTransition(tc.role, tc.from, tc.to)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("got %v, want code %s", err, tc.wantCode)
			}
		})
	}
}
