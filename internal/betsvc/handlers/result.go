package handlers

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
)

type recordResultRequest struct {
	FRResult *int `json:"fr_result" validate:"omitempty,min=0,max=99"`
	SRResult *int `json:"sr_result" validate:"omitempty,min=0,max=99"`
}

// RecordResult accepts the FR and/or SR result for a round and runs the
// settlement pass. Submitting the SR value later completes the bets that
// stayed pending on the first pass.
func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	roundID, err := objectIDParam(r, "roundID")
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	var req recordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "malformed request body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "invalid request", err))
		return
	}

	round, err := h.settlementService.RecordResult(r.Context(), roundID, req.FRResult, req.SRResult)
	if err != nil {
		log.Warnf("record result for round %s rejected: %v", roundID.Hex(), err)
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "result recorded", Code: http.StatusOK, Data: round})
}
