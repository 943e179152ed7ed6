package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

type UserService struct {
	userStore UserStore
	txnStore  TransactionStore
}

func NewUserService(userStore UserStore, txnStore TransactionStore) *UserService {
	return &UserService{userStore: userStore, txnStore: txnStore}
}

func (s *UserService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userStore.GetByID(ctx, userID)
}

func (s *UserService) GetBalance(ctx context.Context, userID primitive.ObjectID) (decimal.Decimal, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

func (s *UserService) ListTransactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Transaction, error) {
	return s.txnStore.ListByUser(ctx, userID, limit)
}
