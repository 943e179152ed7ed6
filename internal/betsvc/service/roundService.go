package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// RoundPublisher pushes round changes out to the socket service and the
// scheduler. Implemented by the NATS broker; nil disables publishing.
type RoundPublisher interface {
	PublishRoundUpdate(round *models.Round)
	PublishRoundSettled(round *models.Round)
}

type RoundService struct {
	roundStore   RoundStore
	houseService *HouseService
	pub          RoundPublisher
}

func NewRoundService(roundStore RoundStore, houseService *HouseService, pub RoundPublisher) *RoundService {
	return &RoundService{
		roundStore:   roundStore,
		houseService: houseService,
		pub:          pub,
	}
}

func (s *RoundService) GetRound(ctx context.Context, roundID primitive.ObjectID) (*models.Round, error) {
	round, err := s.roundStore.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	s.healStatuses(ctx, round, time.Now().UTC())
	return round, nil
}

// ActiveRound returns the house's open round for display, with statuses
// re-derived against the current clock so a stale document self-heals on
// read.
func (s *RoundService) ActiveRound(ctx context.Context, houseID primitive.ObjectID) (*models.Round, error) {
	round, err := s.roundStore.GetActiveByHouse(ctx, houseID)
	if err != nil {
		return nil, err
	}
	s.healStatuses(ctx, round, time.Now().UTC())
	return round, nil
}

// healStatuses applies the deadline evaluation to the in-memory round
// and opportunistically persists the transition. Losing the CAS race is
// fine; whoever won wrote the same forward transition.
func (s *RoundService) healStatuses(ctx context.Context, round *models.Round, now time.Time) {
	prev := models.RoundStatuses{
		FR:       round.FRStatus,
		SR:       round.SRStatus,
		Forecast: round.ForecastStatus,
		Overall:  round.Status,
	}
	next := models.EvaluateStatuses(round, now)
	if !round.ApplyStatuses(next) {
		return
	}

	ok, err := s.roundStore.UpdateStatuses(ctx, round.ID, prev, next)
	if err != nil {
		log.Errorf("failed to persist healed statuses of round %s: %v", round.ID.Hex(), err)
		return
	}
	if ok && s.pub != nil {
		s.pub.PublishRoundUpdate(round)
	}
}

// RefreshAll is the scheduler tick: re-evaluate every unfinished round
// and persist any transition. One bad round never aborts the batch.
func (s *RoundService) RefreshAll(ctx context.Context, now time.Time) int {
	rounds, err := s.roundStore.ListUnfinished(ctx)
	if err != nil {
		log.Errorf("status refresh: failed to load rounds: %v", err)
		return 0
	}

	updated := 0
	for _, round := range rounds {
		prev := models.RoundStatuses{
			FR:       round.FRStatus,
			SR:       round.SRStatus,
			Forecast: round.ForecastStatus,
			Overall:  round.Status,
		}
		next := models.EvaluateStatuses(round, now)
		if !round.ApplyStatuses(next) {
			continue
		}

		ok, err := s.roundStore.UpdateStatuses(ctx, round.ID, prev, next)
		if err != nil {
			log.Errorf("status refresh: round %s: %v", round.ID.Hex(), err)
			continue
		}
		if !ok {
			// another writer moved the round already; next tick picks it up
			continue
		}

		updated++
		if s.pub != nil {
			s.pub.PublishRoundUpdate(round)
		}
	}
	return updated
}

// NextOperatingDate scans from the day after the given house-local time
// for the next weekday the house operates on, up to a week out.
func NextOperatingDate(house *models.House, local time.Time) (time.Time, bool) {
	for i := 1; i <= 7; i++ {
		candidate := local.AddDate(0, 0, i)
		if house.OperatesOn(candidate.Weekday()) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// CreateNextRound creates the house's next operating-day round. It scans
// forward from tomorrow (house-local time) for up to seven days and is a
// no-op when the round already exists. The bool reports whether a round
// was actually created.
func (s *RoundService) CreateNextRound(ctx context.Context, house *models.House, now time.Time) (*models.Round, bool, error) {
	loc, err := time.LoadLocation(house.Timezone)
	if err != nil {
		return nil, false, errs.Wrap(errs.KindValidation, "house "+house.ID.Hex()+" has an invalid timezone", err)
	}

	next, found := NextOperatingDate(house, now.In(loc))
	if !found {
		return nil, false, errs.Newf(errs.KindValidation, "house %s has no operating weekday", house.ID.Hex())
	}

	deadline, err := house.DeadlineOn(next)
	if err != nil {
		return nil, false, errs.Wrap(errs.KindValidation, "cannot compute deadline", err)
	}

	round := &models.Round{
		HouseID:        house.ID,
		Date:           next.Format("2006-01-02"),
		Deadline:       deadline,
		FRStatus:       models.SubGamePending,
		SRStatus:       models.SubGamePending,
		ForecastStatus: models.SubGamePending,
		Status:         models.RoundPending,
	}

	created, err := s.roundStore.Create(ctx, round)
	if err != nil {
		if errs.Is(err, errs.KindConflict) {
			existing, getErr := s.roundStore.GetByHouseAndDate(ctx, house.ID, round.Date)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	log.Infof("created round %s for house %s on %s (deadline %s)",
		created.ID.Hex(), house.Name, created.Date, created.Deadline.Format(time.RFC3339))

	if s.pub != nil {
		s.pub.PublishRoundUpdate(created)
	}
	return created, true, nil
}

// AutoCreateAll runs next-round creation for one house or for every
// auto-create house. Per-house failures are logged and skipped.
func (s *RoundService) AutoCreateAll(ctx context.Context, houseID *primitive.ObjectID) ([]*models.Round, error) {
	var houses []*models.House
	if houseID != nil {
		house, err := s.houseService.Snapshot(ctx, *houseID)
		if err != nil {
			return nil, err
		}
		if !house.Active {
			return nil, errs.Newf(errs.KindConflict, "house %s is not active", houseID.Hex())
		}
		houses = append(houses, house)
	} else {
		var err error
		houses, err = s.houseService.ListAutoCreate(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var created []*models.Round
	for _, house := range houses {
		round, isNew, err := s.CreateNextRound(ctx, house, now)
		if err != nil {
			log.Errorf("auto-create: house %s: %v", house.ID.Hex(), err)
			continue
		}
		if isNew {
			created = append(created, round)
		}
	}
	return created, nil
}
