package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/service"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	validate  *validator.Validate

	betService        *service.BetService
	roundService      *service.RoundService
	settlementService *service.SettlementService
	houseService      *service.HouseService
	userService       *service.UserService
}

func NewHandler(betService *service.BetService, roundService *service.RoundService,
	settlementService *service.SettlementService, houseService *service.HouseService,
	userService *service.UserService) *Handler {
	return &Handler{
		validate:          validator.New(),
		betService:        betService,
		roundService:      roundService,
		settlementService: settlementService,
		houseService:      houseService,
		userService:       userService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// CreateErrorResponse maps the error kind to an HTTP status so clients
// can tell a permanent rejection from something worth retrying.
func (h *Handler) CreateErrorResponse(w http.ResponseWriter, err error) {
	var code int
	switch errs.KindOf(err) {
	case errs.KindValidation:
		code = http.StatusBadRequest
	case errs.KindConflict:
		code = http.StatusConflict
	case errs.KindInsufficient:
		code = http.StatusPaymentRequired
	case errs.KindNotFound:
		code = http.StatusNotFound
	case errs.KindTransient:
		code = http.StatusServiceUnavailable
	default:
		code = http.StatusInternalServerError
	}

	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "bet service is running at port " + os.Getenv("BET_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": primitive.NewObjectID().Hex(),
		"role":    "admin",
		"exp":     expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}

// userIDFromContext pulls the authenticated user's id out of the JWT
// claims; registration lives in the account service, this one only
// trusts the token.
func userIDFromContext(r *http.Request) (primitive.ObjectID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return primitive.NilObjectID, errs.Wrap(errs.KindValidation, "missing auth claims", err)
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return primitive.NilObjectID, errs.New(errs.KindValidation, "token has no user_id claim")
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errs.Wrap(errs.KindValidation, "malformed user_id claim", err)
	}
	return id, nil
}

// AdminOnly guards the result-recording and round-creation routes.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "unauthorized"})
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			h.CreateResponse(w, Response{Code: http.StatusForbidden, Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
