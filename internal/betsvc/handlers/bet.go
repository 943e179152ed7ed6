package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
	"github.com/rtsant123/myteer-backend/internal/betsvc/service"
)

type placeBetEntry struct {
	SubGame      string          `json:"sub_game" validate:"required,oneof=FR SR FORECAST"`
	PlayType     string          `json:"play_type" validate:"required,oneof=DIRECT HOUSE ENDING"`
	Number       int             `json:"number" validate:"min=0,max=99"`
	SecondNumber *int            `json:"second_number,omitempty" validate:"omitempty,min=0,max=99"`
	Amount       decimal.Decimal `json:"amount"`
}

type placeBetRequest struct {
	HouseID string          `json:"house_id" validate:"required,len=24,hexadecimal"`
	RoundID string          `json:"round_id" validate:"required,len=24,hexadecimal"`
	Entries []placeBetEntry `json:"entries" validate:"required,min=1,dive"`
}

type placeBetResponse struct {
	Bet     *models.Bet `json:"bet"`
	Balance string      `json:"balance"`
}

func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "malformed request body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.CreateErrorResponse(w, errs.Wrap(errs.KindValidation, "invalid request", err))
		return
	}

	houseID, _ := primitive.ObjectIDFromHex(req.HouseID)
	roundID, _ := primitive.ObjectIDFromHex(req.RoundID)

	inputs := make([]service.EntryInput, 0, len(req.Entries))
	for _, e := range req.Entries {
		inputs = append(inputs, service.EntryInput{
			SubGame:      models.SubGame(e.SubGame),
			PlayType:     models.PlayType(e.PlayType),
			Number:       e.Number,
			SecondNumber: e.SecondNumber,
			Amount:       e.Amount,
		})
	}

	bet, user, err := h.betService.PlaceBet(r.Context(), userID, houseID, roundID, inputs)
	if err != nil {
		log.Warnf("place bet rejected for user %s: %v", userID.Hex(), err)
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "bet placed",
		Code:    http.StatusCreated,
		Data: placeBetResponse{
			Bet:     bet,
			Balance: user.Balance.StringFixed(2),
		},
	})
}

func (h *Handler) MyBets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	bets, err := h.betService.ListUserBets(r.Context(), userID, 100)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: bets})
}
