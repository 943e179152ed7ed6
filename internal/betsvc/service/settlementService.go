package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// SettlementService records results and pays winners. Settlement only
// touches bets still pending and finalizes each at most once, so a
// repeated result submission can never double-pay.
type SettlementService struct {
	roundStore RoundStore
	betStore   BetStore
	userStore  UserStore
	txnStore   TransactionStore
	pub        RoundPublisher
}

func NewSettlementService(roundStore RoundStore, betStore BetStore,
	userStore UserStore, txnStore TransactionStore, pub RoundPublisher) *SettlementService {
	return &SettlementService{
		roundStore: roundStore,
		betStore:   betStore,
		userStore:  userStore,
		txnStore:   txnStore,
		pub:        pub,
	}
}

// RecordResult stores the submitted result value(s) on the round, marks
// the affected sub-games finished and runs a settlement pass. Either
// value may arrive alone; the SR value usually follows the FR value by
// a few hours.
func (s *SettlementService) RecordResult(ctx context.Context, roundID primitive.ObjectID,
	frResult, srResult *int) (*models.Round, error) {

	if frResult == nil && srResult == nil {
		return nil, errs.New(errs.KindValidation, "no result value submitted")
	}
	for _, v := range []*int{frResult, srResult} {
		if v != nil && (*v < 0 || *v > 99) {
			return nil, errs.Newf(errs.KindValidation, "result %d is out of range 0-99", *v)
		}
	}

	now := time.Now().UTC()

	// Validate both fields against the current round before writing
	// anything: a combined submission must not land one result and then
	// conflict on the other.
	round, err := s.roundStore.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if frResult != nil && round.FRResult != nil {
		return nil, errs.Newf(errs.KindConflict, "FR result of round %s is already recorded", roundID.Hex())
	}
	if srResult != nil && round.SRResult != nil {
		return nil, errs.Newf(errs.KindConflict, "SR result of round %s is already recorded", roundID.Hex())
	}

	wrote := false
	if frResult != nil {
		round, err = s.roundStore.SetResult(ctx, roundID, models.SubGameFR, *frResult, now)
		if err != nil {
			return nil, err
		}
		wrote = true
	}
	if srResult != nil {
		updated, err := s.roundStore.SetResult(ctx, roundID, models.SubGameSR, *srResult, now)
		switch {
		case err == nil:
			round = updated
		case wrote && errs.Is(err, errs.KindConflict):
			// lost a race to a concurrent SR submission after our FR
			// write landed; reload and settle with what the store holds
			if round, err = s.roundStore.GetByID(ctx, roundID); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	round, err = s.persistDerivedStatuses(ctx, round, now)
	if err != nil {
		return nil, err
	}

	s.settleRound(ctx, round)

	if s.pub != nil {
		s.pub.PublishRoundUpdate(round)
		if round.Status == models.RoundFinished {
			s.pub.PublishRoundSettled(round)
		}
	}

	return round, nil
}

// persistDerivedStatuses re-derives forecast and overall status after a
// result write. The CAS against the just-read statuses can lose to the
// scheduler tick; a short retry re-reads and tries again.
func (s *SettlementService) persistDerivedStatuses(ctx context.Context, round *models.Round, now time.Time) (*models.Round, error) {
	for attempt := 0; attempt < 3; attempt++ {
		prev := models.RoundStatuses{
			FR:       round.FRStatus,
			SR:       round.SRStatus,
			Forecast: round.ForecastStatus,
			Overall:  round.Status,
		}
		next := models.EvaluateStatuses(round, now)
		if !round.ApplyStatuses(next) {
			return round, nil
		}

		ok, err := s.roundStore.UpdateStatuses(ctx, round.ID, prev, next)
		if err != nil {
			return nil, err
		}
		if ok {
			return round, nil
		}

		round, err = s.roundStore.GetByID(ctx, round.ID)
		if err != nil {
			return nil, err
		}
	}
	return nil, errs.Newf(errs.KindTransient, "round %s statuses kept changing, try again", round.ID.Hex())
}

// settleRound evaluates every pending bet of the round against the
// results recorded so far. Bets with an entry whose sub-game result is
// still missing stay pending untouched. Per-bet failures are logged and
// skipped; the resettle sweep retries them, since a recorded result can
// never be submitted again.
func (s *SettlementService) settleRound(ctx context.Context, round *models.Round) {
	bets, err := s.betStore.ListPendingByRound(ctx, round.ID)
	if err != nil {
		log.Errorf("settlement: failed to load pending bets for round %s: %v", round.ID.Hex(), err)
		return
	}

	settled, won := 0, 0
	for _, bet := range bets {
		outcome, evaluable, err := EvaluateBet(bet, round)
		if err != nil {
			log.Errorf("settlement: bet %s: %v", bet.ID.Hex(), err)
			continue
		}
		if !evaluable {
			continue
		}

		if err := s.finalizeBet(ctx, bet, outcome); err != nil {
			log.Errorf("settlement: bet %s: %v", bet.ID.Hex(), err)
			continue
		}
		settled++
		if outcome.Status == models.BetWon {
			won++
		}
	}

	if settled > 0 {
		log.Infof("settlement pass for round %s: %d bets settled (%d won) out of %d pending",
			round.ID.Hex(), settled, won, len(bets))
	}
}

// ResettlePending re-runs settlement for every round that still has
// pending bets and at least one recorded result. This is the retry
// vehicle for bets a settlement pass skipped on a transient failure.
func (s *SettlementService) ResettlePending(ctx context.Context) int {
	roundIDs, err := s.betStore.ListPendingRoundIDs(ctx)
	if err != nil {
		log.Errorf("resettle sweep: failed to list rounds with pending bets: %v", err)
		return 0
	}

	swept := 0
	for _, roundID := range roundIDs {
		round, err := s.roundStore.GetByID(ctx, roundID)
		if err != nil {
			log.Errorf("resettle sweep: round %s: %v", roundID.Hex(), err)
			continue
		}
		if round.FRResult == nil && round.SRResult == nil {
			continue
		}
		s.settleRound(ctx, round)
		swept++
	}
	return swept
}

// BetOutcome is the result of evaluating one bet against a round.
type BetOutcome struct {
	Entries  []models.BetEntry
	Status   models.BetStatus
	TotalWin decimal.Decimal
}

// EvaluateBet applies the play-type rules to every entry. The bool is
// false when any entry's sub-game result is still missing: the bet must
// stay pending as a whole, partial settlement is not allowed.
func EvaluateBet(bet *models.Bet, round *models.Round) (BetOutcome, bool, error) {
	for _, e := range bet.Entries {
		if !round.ResultsKnownFor(e.SubGame) {
			return BetOutcome{}, false, nil
		}
	}

	entries := make([]models.BetEntry, len(bet.Entries))
	copy(entries, bet.Entries)

	totalWin := decimal.Zero
	status := models.BetLost
	for i := range entries {
		wins, err := models.EntryWins(&entries[i], round)
		if err != nil {
			return BetOutcome{}, false, err
		}
		if wins {
			entries[i].IsWinner = true
			entries[i].WinAmount = entries[i].Amount.Mul(entries[i].Rate).Round(2)
			totalWin = totalWin.Add(entries[i].WinAmount)
			status = models.BetWon
		} else {
			entries[i].IsWinner = false
			entries[i].WinAmount = decimal.Zero
		}
	}

	return BetOutcome{Entries: entries, Status: status, TotalWin: totalWin}, true, nil
}

// finalizeBet persists the outcome and pays the winner. The status CAS
// in FinalizeSettlement guarantees the payout happens at most once even
// if two settlement passes overlap.
func (s *SettlementService) finalizeBet(ctx context.Context, bet *models.Bet, outcome BetOutcome) error {
	now := time.Now().UTC()

	ok, err := s.betStore.FinalizeSettlement(ctx, bet.ID, outcome.Entries, outcome.Status, outcome.TotalWin, now)
	if err != nil {
		return err
	}
	if !ok {
		// already settled by a concurrent pass
		return nil
	}

	if outcome.Status != models.BetWon || !outcome.TotalWin.IsPositive() {
		return nil
	}

	user, err := s.userStore.Credit(ctx, bet.UserID, outcome.TotalWin)
	if err != nil {
		return errs.Wrap(errs.KindCompensation, "bet "+bet.ID.Hex()+" settled won but the payout credit failed", err)
	}

	txn := &models.Transaction{
		UserID:        bet.UserID,
		Kind:          models.TransactionWinPayout,
		Amount:        outcome.TotalWin,
		BalanceBefore: user.Balance.Sub(outcome.TotalWin),
		BalanceAfter:  user.Balance,
		Description:   "payout for bet " + bet.ID.Hex(),
		BetID:         &bet.ID,
		TRef:          uuid.New().String(),
	}
	if _, err := s.txnStore.Create(ctx, txn); err != nil {
		log.Errorf("settlement: payout transaction for bet %s failed: %v", bet.ID.Hex(), err)
		return errs.Wrap(errs.KindCompensation, "bet "+bet.ID.Hex()+" paid but the ledger record failed", err)
	}

	return nil
}
