package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/broker"
	"github.com/rtsant123/myteer-backend/internal/betsvc/service"
	"github.com/rtsant123/myteer-backend/internal/comm"
)

// Scheduler drives the two timers of the round lifecycle: the status
// refresh tick and daily next-round creation. It also listens for
// settlement completion so the next round appears right after a house's
// results are finalized, without waiting for the daily timer.
type Scheduler struct {
	roundService      *service.RoundService
	houseService      *service.HouseService
	settlementService *service.SettlementService
	broker            *broker.Broker

	refreshInterval    time.Duration
	autoCreateInterval time.Duration

	sub    *nats.Subscription
	cancel context.CancelFunc
}

func New(roundService *service.RoundService, houseService *service.HouseService,
	settlementService *service.SettlementService, b *broker.Broker) *Scheduler {
	return &Scheduler{
		roundService:       roundService,
		houseService:       houseService,
		settlementService:  settlementService,
		broker:             b,
		refreshInterval:    intervalFromEnv("ROUND_REFRESH_INTERVAL", time.Minute),
		autoCreateInterval: intervalFromEnv("ROUND_AUTOCREATE_INTERVAL", time.Hour),
	}
}

func intervalFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Warnf("invalid %s value %q, using %s", key, os.Getenv(key), def)
	}
	return def
}

func (s *Scheduler) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	sub, err := s.broker.SubscribeRoundSettled(s.handleRoundSettled)
	if err != nil {
		cancel()
		return err
	}
	s.sub = sub

	go s.runStatusRefresh(ctx)
	go s.runAutoCreate(ctx)

	log.Infof("scheduler started: refresh every %s, auto-create sweep every %s",
		s.refreshInterval, s.autoCreateInterval)
	return nil
}

func (s *Scheduler) Stop() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) runStatusRefresh(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			updated := s.roundService.RefreshAll(tickCtx, now.UTC())
			// bets a previous settlement pass skipped on a transient
			// failure have no other retry path than this tick
			s.settlementService.ResettlePending(tickCtx)
			cancel()
			if updated > 0 {
				log.Infof("status refresh: %d rounds transitioned", updated)
			}
		}
	}
}

// runAutoCreate is the fallback driver: the settlement signal normally
// creates the next round first, and this sweep is idempotent over it.
func (s *Scheduler) runAutoCreate(ctx context.Context) {
	ticker := time.NewTicker(s.autoCreateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			created, err := s.roundService.AutoCreateAll(tickCtx, nil)
			cancel()
			if err != nil {
				log.Errorf("auto-create sweep: %v", err)
				continue
			}
			if len(created) > 0 {
				log.Infof("auto-create sweep: %d rounds created", len(created))
			}
		}
	}
}

func (s *Scheduler) handleRoundSettled(notice comm.RoundSettled) {
	houseID, err := primitive.ObjectIDFromHex(notice.HouseID)
	if err != nil {
		log.Errorf("round-settled: invalid house id %q: %v", notice.HouseID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	house, err := s.houseService.Snapshot(ctx, houseID)
	if err != nil {
		log.Errorf("round-settled: house %s: %v", notice.HouseID, err)
		return
	}
	if !house.Active || !house.AutoCreate {
		return
	}

	if _, isNew, err := s.roundService.CreateNextRound(ctx, house, time.Now().UTC()); err != nil {
		log.Errorf("round-settled: next round for house %s: %v", notice.HouseID, err)
	} else if isNew {
		log.Infof("round-settled: next round created for house %s", house.Name)
	}
}
