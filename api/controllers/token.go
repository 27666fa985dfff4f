package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/api/responses"
	"github.com/stantonsupply/backoffice/api/validators"
	pkgAuth "github.com/stantonsupply/backoffice/pkg/auth"
	"github.com/stantonsupply/backoffice/pkg/config"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/logger"
)

type tokenMintRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Name   string `json:"name"`
	Role   string `json:"role" validate:"required"`
}

// DevMintToken issues an access token without credentials. Wired only
// outside prod, for seeding local and staging environments.
func DevMintToken(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tokenMintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}

		role, err := enums.ParseActorRole(strings.TrimSpace(payload.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid role"))
			return
		}

		token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
			UserID: userID,
			Name:   strings.TrimSpace(payload.Name),
			Role:   role,
			JTI:    uuid.NewString(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"access_token": token})
	}
}
