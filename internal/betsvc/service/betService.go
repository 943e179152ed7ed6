package service

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// BetLimits bounds what a single wager may contain.
type BetLimits struct {
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	MaxEntries int

	// SequentialSR switches SR admission to the sequential policy: SR
	// entries are only accepted once the FR result is recorded. The
	// default keeps FR and SR open together until the shared deadline.
	SequentialSR bool
}

// LoadBetLimits reads the wager limits from the environment.
func LoadBetLimits() BetLimits {
	limits := BetLimits{
		MinAmount:  decimal.NewFromInt(1),
		MaxAmount:  decimal.NewFromInt(10000),
		MaxEntries: 100,
	}

	if v := os.Getenv("BET_MIN_AMOUNT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			limits.MinAmount = d
		}
	}
	if v := os.Getenv("BET_MAX_AMOUNT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			limits.MaxAmount = d
		}
	}
	if v := os.Getenv("BET_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limits.MaxEntries = n
		}
	}
	if v := os.Getenv("BET_SEQUENTIAL_SR"); v != "" {
		limits.SequentialSR, _ = strconv.ParseBool(v)
	}

	return limits
}

// EntryInput is one requested wager line before validation.
type EntryInput struct {
	SubGame      models.SubGame
	PlayType     models.PlayType
	Number       int
	SecondNumber *int
	Amount       decimal.Decimal
}

type BetService struct {
	betStore     BetStore
	roundStore   RoundStore
	userStore    UserStore
	txnStore     TransactionStore
	houseService *HouseService
	limits       BetLimits
}

func NewBetService(betStore BetStore, roundStore RoundStore, userStore UserStore,
	txnStore TransactionStore, houseService *HouseService, limits BetLimits) *BetService {
	return &BetService{
		betStore:     betStore,
		roundStore:   roundStore,
		userStore:    userStore,
		txnStore:     txnStore,
		houseService: houseService,
		limits:       limits,
	}
}

// PlaceBet validates and records a wager. The debit is atomic at the
// store; every failure after it rolls the money back before returning.
func (s *BetService) PlaceBet(ctx context.Context, userID, houseID, roundID primitive.ObjectID,
	entries []EntryInput) (*models.Bet, *models.User, error) {

	round, err := s.roundStore.GetByID(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}
	if round.HouseID != houseID {
		return nil, nil, errs.Newf(errs.KindValidation, "round %s does not belong to house %s",
			roundID.Hex(), houseID.Hex())
	}

	now := time.Now().UTC()
	round.ApplyStatuses(models.EvaluateStatuses(round, now))

	house, err := s.houseService.Snapshot(ctx, houseID)
	if err != nil {
		return nil, nil, err
	}

	betEntries, total, err := BuildEntries(house, round, entries, now, s.limits)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userStore.DebitForStake(ctx, userID, total)
	if err != nil {
		return nil, nil, err
	}

	bet := &models.Bet{
		UserID:      userID,
		HouseID:     houseID,
		RoundID:     roundID,
		Entries:     betEntries,
		TotalAmount: total,
		Status:      models.BetPending,
		TotalWin:    decimal.Zero,
	}

	created, err := s.betStore.Create(ctx, bet)
	if err != nil {
		return nil, nil, s.compensateDebit(ctx, userID, total, nil, err)
	}

	txn := &models.Transaction{
		UserID:        userID,
		Kind:          models.TransactionBetStake,
		Amount:        total.Neg(),
		BalanceBefore: user.Balance.Add(total),
		BalanceAfter:  user.Balance,
		Description:   "stake on " + house.Name + " round " + round.Date,
		BetID:         &created.ID,
		TRef:          uuid.New().String(),
	}
	if _, err := s.txnStore.Create(ctx, txn); err != nil {
		if delErr := s.betStore.Delete(ctx, created.ID); delErr != nil {
			log.Errorf("failed to unwind bet %s after transaction failure: %v", created.ID.Hex(), delErr)
		}
		return nil, nil, s.compensateDebit(ctx, userID, total, &created.ID, err)
	}

	return created, user, nil
}

// compensateDebit credits the stake back after a post-debit failure. A
// compensation that itself fails is escalated: that user's ledger needs
// a human.
func (s *BetService) compensateDebit(ctx context.Context, userID primitive.ObjectID,
	total decimal.Decimal, betID *primitive.ObjectID, cause error) error {

	user, err := s.userStore.Credit(ctx, userID, total)
	if err != nil {
		log.Errorf("COMPENSATION FAILED: user %s is debited %s with no bet recorded: %v (cause: %v)",
			userID.Hex(), total.StringFixed(2), err, cause)
		return errs.Wrap(errs.KindCompensation, "wager failed and the stake refund also failed", err)
	}

	// The debit and its refund are recorded as a pair; a lone refund
	// record would leave the ledger out of step with the balance.
	stakeTxn := &models.Transaction{
		UserID:        userID,
		Kind:          models.TransactionBetStake,
		Amount:        total.Neg(),
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance.Sub(total),
		Description:   "stake for failed wager",
		BetID:         betID,
		TRef:          uuid.New().String(),
	}
	refundTxn := &models.Transaction{
		UserID:        userID,
		Kind:          models.TransactionStakeRefund,
		Amount:        total,
		BalanceBefore: user.Balance.Sub(total),
		BalanceAfter:  user.Balance,
		Description:   "stake refund after failed wager",
		BetID:         betID,
		TRef:          uuid.New().String(),
	}
	if _, err := s.txnStore.Create(ctx, stakeTxn); err != nil {
		log.Errorf("failed to record stake transaction for refunded wager of user %s: %v", userID.Hex(), err)
		return errs.Wrap(errs.KindCompensation, "stake refunded but the ledger record failed", err)
	}
	if _, err := s.txnStore.Create(ctx, refundTxn); err != nil {
		log.Errorf("failed to record refund transaction for user %s: %v", userID.Hex(), err)
		return errs.Wrap(errs.KindCompensation, "stake refunded but the ledger record failed", err)
	}

	log.Warnf("wager admission for user %s failed after debit, stake %s refunded: %v",
		userID.Hex(), total.StringFixed(2), cause)
	return errs.Wrap(errs.KindTransient, "failed to record wager, stake refunded", cause)
}

func (s *BetService) ListUserBets(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Bet, error) {
	return s.betStore.ListByUser(ctx, userID, limit)
}

// BuildEntries runs the admission checks in order, snapshots the house
// rates into the entries and totals the stake. No side effects.
func BuildEntries(house *models.House, round *models.Round, inputs []EntryInput,
	now time.Time, limits BetLimits) ([]models.BetEntry, decimal.Decimal, error) {

	if len(inputs) == 0 {
		return nil, decimal.Zero, errs.New(errs.KindValidation, "a bet needs at least one entry")
	}

	for _, in := range inputs {
		if err := checkAdmission(round, in.SubGame, now, limits); err != nil {
			return nil, decimal.Zero, err
		}
	}

	if len(inputs) > limits.MaxEntries {
		return nil, decimal.Zero, errs.Newf(errs.KindValidation, "a bet may have at most %d entries", limits.MaxEntries)
	}

	entries := make([]models.BetEntry, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		entry, err := buildEntry(house, in, limits)
		if err != nil {
			return nil, decimal.Zero, err
		}
		entries = append(entries, entry)
		total = total.Add(entry.Amount)
	}

	return entries, total, nil
}

// checkAdmission gates one entry's sub-game against the round state.
func checkAdmission(round *models.Round, subGame models.SubGame, now time.Time, limits BetLimits) error {
	switch subGame {
	case models.SubGameFR, models.SubGameSR, models.SubGameForecast:
	default:
		return errs.Newf(errs.KindValidation, "unknown sub-game %q", subGame)
	}

	if round.SubGameStatusFor(subGame) == models.SubGameFinished {
		return errs.Newf(errs.KindConflict, "%s betting is closed for round %s", subGame, round.ID.Hex())
	}

	if limits.SequentialSR && subGame == models.SubGameSR {
		// sequential policy: SR opens once the FR result is out
		if round.FRResult == nil {
			return errs.Newf(errs.KindConflict, "SR betting opens after the FR result for round %s", round.ID.Hex())
		}
		return nil
	}

	if !now.Before(round.Deadline) {
		return errs.Newf(errs.KindConflict, "the betting deadline for round %s has passed", round.ID.Hex())
	}
	return nil
}

func buildEntry(house *models.House, in EntryInput, limits BetLimits) (models.BetEntry, error) {
	var zero models.BetEntry

	if in.Number < 0 || in.Number > 99 {
		return zero, errs.Newf(errs.KindValidation, "number %d is out of range 0-99", in.Number)
	}
	if in.SubGame == models.SubGameForecast {
		if in.SecondNumber == nil {
			return zero, errs.New(errs.KindValidation, "a forecast entry needs an SR number")
		}
		if *in.SecondNumber < 0 || *in.SecondNumber > 99 {
			return zero, errs.Newf(errs.KindValidation, "number %d is out of range 0-99", *in.SecondNumber)
		}
	} else if in.SecondNumber != nil {
		return zero, errs.Newf(errs.KindValidation, "only forecast entries carry a second number")
	}

	if in.Amount.LessThan(limits.MinAmount) || in.Amount.GreaterThan(limits.MaxAmount) {
		return zero, errs.Newf(errs.KindValidation, "amount %s must be between %s and %s",
			in.Amount.StringFixed(2), limits.MinAmount.String(), limits.MaxAmount.String())
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return zero, errs.Newf(errs.KindValidation, "amount %s has more than two decimal places", in.Amount.String())
	}

	rate, err := house.Rate(in.SubGame, in.PlayType)
	if err != nil {
		return zero, errs.Wrap(errs.KindValidation, "no payout rate", err)
	}

	return models.BetEntry{
		SubGame:      in.SubGame,
		PlayType:     in.PlayType,
		Number:       in.Number,
		SecondNumber: in.SecondNumber,
		Amount:       in.Amount,
		Rate:         rate,
		PotentialWin: in.Amount.Mul(rate).Round(2),
		WinAmount:    decimal.Zero,
	}, nil
}
