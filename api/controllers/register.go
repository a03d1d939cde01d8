package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/api/validators"
	"github.com/angelmondragon/fluxo-pos/internal/register"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Register is the cash register closing surface.
type Register interface {
	Summary(ctx context.Context, day time.Time) (*register.Summary, error)
	Close(ctx context.Context, input register.CloseInput) (*models.CashClosing, error)
	Location() *time.Location
}

type closeRequest struct {
	Day      string        `json:"day"`
	Bills    map[int64]int `json:"bills" validate:"required"`
	Notes    *string       `json:"notes,omitempty"`
	ClosedBy *string       `json:"closed_by,omitempty"`
}

// RegisterSummary returns the expected totals for ?day=YYYY-MM-DD (today by
// default).
func RegisterSummary(svc Register, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register unavailable"))
			return
		}
		day, err := validators.ParseQueryDate(r, "day", svc.Location(), time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// RegisterClose stores the day's cash closing from the counted bills.
func RegisterClose(svc Register, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register unavailable"))
			return
		}
		var payload closeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := register.CloseInput{
			Bills:    payload.Bills,
			Notes:    sanitized(payload.Notes, 500),
			ClosedBy: sanitized(payload.ClosedBy, 64),
		}
		if day := strings.TrimSpace(payload.Day); day != "" {
			parsed, err := time.ParseInLocation("2006-01-02", day, svc.Location())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "day must use YYYY-MM-DD"))
				return
			}
			input.Day = parsed
		}

		closing, err := svc.Close(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, closing)
	}
}
