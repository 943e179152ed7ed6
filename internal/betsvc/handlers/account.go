package handlers

import (
	"net/http"
)

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	balance, err := h.userService.GetBalance(r.Context(), userID)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "ok",
		Code:    http.StatusOK,
		Data:    map[string]string{"balance": balance.StringFixed(2)},
	})
}

func (h *Handler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	txns, err := h.userService.ListTransactions(r.Context(), userID, 100)
	if err != nil {
		h.CreateErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: txns})
}
