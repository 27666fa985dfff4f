package orders

import (
	"fmt"

	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
)

// allowedTargets maps each actor role onto the statuses it may move an
// order into. The table is the single source of truth for transition
// gating; callers never special-case roles.
var allowedTargets = map[enums.ActorRole]map[enums.OrderStatus]bool{
	enums.ActorRoleAdmin: {
		enums.OrderStatusPending:   true,
		enums.OrderStatusShipped:   true,
		enums.OrderStatusDelivered: true,
		enums.OrderStatusCompleted: true,
		enums.OrderStatusCancelled: true,
	},
	enums.ActorRoleDelivery: {
		enums.OrderStatusShipped:   true,
		enums.OrderStatusDelivered: true,
		enums.OrderStatusCompleted: true,
	},
}

// checkTransition validates a status change request against the current
// status and the actor's role.
func checkTransition(role enums.ActorRole, from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot change status").
			WithDetails(map[string]string{"status": from.String()})
	}
	if from == to {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", to))
	}
	targets, ok := allowedTargets[role]
	if !ok || !targets[to] {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not move orders to %s", role, to))
	}
	return nil
}
