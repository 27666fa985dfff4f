package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/api/middleware"
	"github.com/stantonsupply/backoffice/internal/orders"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
)

// actorFromRequest rebuilds the authenticated actor from the values the
// auth middleware stashed on the context.
func actorFromRequest(r *http.Request) (orders.Actor, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}

	return orders.Actor{UserID: userID, Role: role}, nil
}
