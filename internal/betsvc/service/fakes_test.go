package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// In-memory stands-ins for the mongo stores, mimicking their filtered
// atomic-update semantics so the money paths can be tested end to end.

func copyRound(r *models.Round) *models.Round {
	c := *r
	return &c
}

func copyBet(b *models.Bet) *models.Bet {
	c := *b
	c.Entries = append([]models.BetEntry(nil), b.Entries...)
	return &c
}

type fakeRoundStore struct {
	mu     sync.Mutex
	rounds map[primitive.ObjectID]*models.Round

	// srRaceValue simulates a concurrent SR submission: the next SR
	// SetResult stores this value but reports a conflict to the caller.
	srRaceValue *int
}

func newFakeRoundStore(rounds ...*models.Round) *fakeRoundStore {
	s := &fakeRoundStore{rounds: map[primitive.ObjectID]*models.Round{}}
	for _, r := range rounds {
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		s.rounds[r.ID] = copyRound(r)
	}
	return s
}

func (s *fakeRoundStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "round %s not found", id.Hex())
	}
	return copyRound(r), nil
}

func (s *fakeRoundStore) GetActiveByHouse(_ context.Context, houseID primitive.ObjectID) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Round
	for _, r := range s.rounds {
		if r.HouseID != houseID || r.ForecastStatus == models.SubGameFinished {
			continue
		}
		if best == nil || r.Date < best.Date {
			best = r
		}
	}
	if best == nil {
		return nil, errs.Newf(errs.KindNotFound, "no open round for house %s", houseID.Hex())
	}
	return copyRound(best), nil
}

func (s *fakeRoundStore) GetByHouseAndDate(_ context.Context, houseID primitive.ObjectID, date string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.HouseID == houseID && r.Date == date {
			return copyRound(r), nil
		}
	}
	return nil, errs.Newf(errs.KindNotFound, "no round for house %s on %s", houseID.Hex(), date)
}

func (s *fakeRoundStore) ListUnfinished(_ context.Context) ([]*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Round
	for _, r := range s.rounds {
		if r.ForecastStatus != models.SubGameFinished {
			out = append(out, copyRound(r))
		}
	}
	return out, nil
}

func (s *fakeRoundStore) Create(_ context.Context, round *models.Round) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.HouseID == round.HouseID && r.Date == round.Date {
			return nil, errs.Newf(errs.KindConflict, "round for house %s on %s already exists",
				round.HouseID.Hex(), round.Date)
		}
	}
	c := copyRound(round)
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.rounds[c.ID] = c
	return copyRound(c), nil
}

func (s *fakeRoundStore) UpdateStatuses(_ context.Context, roundID primitive.ObjectID, prev, next models.RoundStatuses) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return false, nil
	}
	if r.FRStatus != prev.FR || r.SRStatus != prev.SR || r.ForecastStatus != prev.Forecast {
		return false, nil
	}
	r.FRStatus = next.FR
	r.SRStatus = next.SR
	r.ForecastStatus = next.Forecast
	r.Status = next.Overall
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *fakeRoundStore) SetResult(_ context.Context, roundID primitive.ObjectID, subGame models.SubGame, value int, at time.Time) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "round %s not found", roundID.Hex())
	}

	if subGame == models.SubGameSR && s.srRaceValue != nil {
		raced := *s.srRaceValue
		s.srRaceValue = nil
		r.SRResult = &raced
		r.SRResultAt = &at
		r.SRStatus = models.SubGameFinished
		return nil, errs.Newf(errs.KindConflict, "%s result of round %s is already recorded", subGame, roundID.Hex())
	}

	switch subGame {
	case models.SubGameFR:
		if r.FRResult != nil {
			return nil, errs.Newf(errs.KindConflict, "%s result of round %s is already recorded", subGame, roundID.Hex())
		}
		r.FRResult = &value
		r.FRResultAt = &at
		r.FRStatus = models.SubGameFinished
	case models.SubGameSR:
		if r.SRResult != nil {
			return nil, errs.Newf(errs.KindConflict, "%s result of round %s is already recorded", subGame, roundID.Hex())
		}
		r.SRResult = &value
		r.SRResultAt = &at
		r.SRStatus = models.SubGameFinished
	default:
		return nil, errs.Newf(errs.KindValidation, "cannot record a result for sub-game %s", subGame)
	}
	r.UpdatedAt = at
	return copyRound(r), nil
}

type fakeBetStore struct {
	mu   sync.Mutex
	bets map[primitive.ObjectID]*models.Bet

	failCreate       bool
	failFinalizeOnce bool
}

func newFakeBetStore() *fakeBetStore {
	return &fakeBetStore{bets: map[primitive.ObjectID]*models.Bet{}}
}

func (s *fakeBetStore) Create(_ context.Context, bet *models.Bet) (*models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, fmt.Errorf("failed to create bet: connection reset")
	}
	c := copyBet(bet)
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.bets[c.ID] = c
	return copyBet(c), nil
}

func (s *fakeBetStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bets, id)
	return nil
}

func (s *fakeBetStore) ListByUser(_ context.Context, userID primitive.ObjectID, _ int64) ([]*models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Bet
	for _, b := range s.bets {
		if b.UserID == userID {
			out = append(out, copyBet(b))
		}
	}
	return out, nil
}

func (s *fakeBetStore) ListPendingByRound(_ context.Context, roundID primitive.ObjectID) ([]*models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Bet
	for _, b := range s.bets {
		if b.RoundID == roundID && b.Status == models.BetPending {
			out = append(out, copyBet(b))
		}
	}
	return out, nil
}

func (s *fakeBetStore) ListPendingRoundIDs(_ context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, b := range s.bets {
		if b.Status == models.BetPending && !seen[b.RoundID] {
			seen[b.RoundID] = true
			out = append(out, b.RoundID)
		}
	}
	return out, nil
}

func (s *fakeBetStore) FinalizeSettlement(_ context.Context, betID primitive.ObjectID,
	entries []models.BetEntry, status models.BetStatus, totalWin decimal.Decimal, settledAt time.Time) (bool, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFinalizeOnce {
		s.failFinalizeOnce = false
		return false, fmt.Errorf("failed to finalize bet %s: connection reset", betID.Hex())
	}
	b, ok := s.bets[betID]
	if !ok || b.Status != models.BetPending {
		return false, nil
	}
	b.Entries = append([]models.BetEntry(nil), entries...)
	b.Status = status
	b.TotalWin = totalWin
	b.SettledAt = &settledAt
	b.UpdatedAt = settledAt
	return true, nil
}

func (s *fakeBetStore) get(id primitive.ObjectID) *models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	if !ok {
		return nil
	}
	return copyBet(b)
}

func (s *fakeBetStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bets)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		c := *u
		s.users[u.ID] = &c
	}
	return s
}

func (s *fakeUserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "user %s not found", id.Hex())
	}
	c := *u
	return &c, nil
}

func (s *fakeUserStore) DebitForStake(_ context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "user %s not found", userID.Hex())
	}
	if u.Balance.LessThan(amount) {
		return nil, errs.Newf(errs.KindInsufficient, "user %s has insufficient balance for stake %s",
			userID.Hex(), amount.StringFixed(2))
	}
	u.Balance = u.Balance.Sub(amount)
	c := *u
	return &c, nil
}

func (s *fakeUserStore) Credit(_ context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "user %s not found", userID.Hex())
	}
	u.Balance = u.Balance.Add(amount)
	c := *u
	return &c, nil
}

func (s *fakeUserStore) balance(id primitive.ObjectID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

type fakeTxnStore struct {
	mu       sync.Mutex
	txns     []*models.Transaction
	failNext bool
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{}
}

func (s *fakeTxnStore) Create(_ context.Context, txn *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return nil, fmt.Errorf("failed to create transaction: connection reset")
	}
	c := *txn
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	s.txns = append(s.txns, &c)
	return &c, nil
}

func (s *fakeTxnStore) ListByUser(_ context.Context, userID primitive.ObjectID, _ int64) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for _, t := range s.txns {
		if t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// sumFor is the ledger side of the conservation check: a user's balance
// must always equal their starting balance plus this sum.
func (s *fakeTxnStore) sumFor(userID primitive.ObjectID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, t := range s.txns {
		if t.UserID == userID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

func (s *fakeTxnStore) countFor(userID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.txns {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

type fakeHouseStore struct {
	mu     sync.Mutex
	houses map[primitive.ObjectID]*models.House
}

func newFakeHouseStore(houses ...*models.House) *fakeHouseStore {
	s := &fakeHouseStore{houses: map[primitive.ObjectID]*models.House{}}
	for _, h := range houses {
		if h.ID.IsZero() {
			h.ID = primitive.NewObjectID()
		}
		c := *h
		s.houses[h.ID] = &c
	}
	return s
}

func (s *fakeHouseStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.houses[id]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "house %s not found", id.Hex())
	}
	c := *h
	return &c, nil
}

func (s *fakeHouseStore) ListActive(_ context.Context) ([]*models.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.House
	for _, h := range s.houses {
		if h.Active {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fakeHouseStore) ListAutoCreate(_ context.Context) ([]*models.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.House
	for _, h := range s.houses {
		if h.Active && h.AutoCreate {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}
