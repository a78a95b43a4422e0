package controllers

import (
	"net/http"

	"github.com/angelmondragon/partshop-backend/api/responses"
	"github.com/angelmondragon/partshop-backend/api/validators"
	"github.com/angelmondragon/partshop-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
)

// tokenHeader mirrors the access token so clients can read it without
// parsing the body.
const tokenHeader = "X-Partshop-Token"

// AuthLogin checks credentials and returns the session payload. The response
// carries a bearer token and must not be cached.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var credentials auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &credentials); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Login(ctx, credentials)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set(tokenHeader, session.AccessToken)
		responses.WriteSuccess(w, session)
	}
}

func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var signup auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &signup); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Register(ctx, signup)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
