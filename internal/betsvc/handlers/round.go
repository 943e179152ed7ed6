package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
)

func (h *Handler) ListHouses(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houseService.ListActive(r.Context())
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: houses})
}

// ActiveRound returns the house's open round. Statuses are re-derived
// against the clock on the way out, so a client never sees a stale
// "pending" after the deadline.
func (h *Handler) ActiveRound(w http.ResponseWriter, r *http.Request) {
	houseID, err := objectIDParam(r, "houseID")
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	round, err := h.roundService.ActiveRound(r.Context(), houseID)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: round})
}

type autoCreateRequest struct {
	HouseID string `json:"house_id" validate:"omitempty,len=24,hexadecimal"`
}

// TriggerAutoCreate manually runs next-round creation, for one house or
// all of them. Safe to call repeatedly.
func (h *Handler) TriggerAutoCreate(w http.ResponseWriter, r *http.Request) {
	var req autoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "malformed request body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "invalid request", err))
		return
	}

	var houseID *primitive.ObjectID
	if req.HouseID != "" {
		id, err := primitive.ObjectIDFromHex(req.HouseID)
		if err != nil {
			h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "malformed house_id", err))
			return
		}
		houseID = &id
	}

	created, err := h.roundService.AutoCreateAll(r.Context(), houseID)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: created})
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errs.Newf(errs.KindValidation, "malformed %s %q", name, raw)
	}
	return id, nil
}
