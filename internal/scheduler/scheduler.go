package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/cazfleet/accounts/internal/clock"
	"github.com/cazfleet/accounts/internal/config"
	"github.com/cazfleet/accounts/internal/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const refreshLockKey = "jobs:chargeability_refresh"

// maxRefreshRounds caps how many capped refresh invocations one tick may
// chain; it only matters when the eligible set keeps growing faster than the
// cap drains it.
const maxRefreshRounds = 1000

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Charging      *config.ChargingConfigHolder
	Chargeability chargeabilitydomain.Service
	GenID         *snowflake.Node
	Lock          *lock.JobLock `optional:"true"`
}

// Scheduler periodically refreshes the chargeability cache, re-invoking the
// capped refresh until everything is cached or a compliance call fails.
// Newly-eligible vehicles are discovered by re-invocation on the next tick,
// not by re-querying within a run.
type Scheduler struct {
	log           *zap.Logger
	clock         clock.Clock
	charging      *config.ChargingConfigHolder
	chargeability chargeabilitydomain.Service
	genID         *snowflake.Node
	lock          *lock.JobLock

	stop chan struct{}
	done chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:           p.Log.Named("scheduler"),
		clock:         p.Clock,
		charging:      p.Charging,
		chargeability: p.Chargeability,
		genID:         p.GenID,
		lock:          p.Lock,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.loop()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.charging.Get().RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RunRefresh(context.Background())
		}
	}
}

// RunRefresh executes one refresh round trip under a best-effort advisory
// lock, so concurrent replicas do not double-process the same working set.
func (s *Scheduler) RunRefresh(ctx context.Context) {
	cfg := s.charging.Get()
	log := s.log.With(zap.String("run_id", s.genID.Generate().String()))

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx, refreshLockKey, cfg.RefreshJobTimeout)
		if err != nil {
			log.Warn("refresh lock unavailable, proceeding without it", zap.Error(err))
		} else if !ok {
			log.Info("refresh already running elsewhere, skipping")
			return
		} else {
			defer func() {
				if err := release(context.Background()); err != nil {
					log.Warn("releasing refresh lock failed", zap.Error(err))
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RefreshJobTimeout)
	defer cancel()

	start := s.clock.Now()
	for round := 0; round < maxRefreshRounds; round++ {
		result, err := s.chargeability.Refresh(ctx, cfg.MaxVehiclesPerRun, cfg.CacheRefreshDays)
		if err != nil {
			log.Error("refresh failed", zap.Int("round", round), zap.Error(err))
			return
		}
		if result == chargeabilitydomain.ProcessedBatchButStillNotFinished {
			continue
		}
		log.Info("refresh finished",
			zap.String("result", string(result)),
			zap.Int("rounds", round+1),
			zap.Duration("took", s.clock.Now().Sub(start)),
		)
		return
	}
	log.Warn("refresh stopped at round cap", zap.Int("rounds", maxRefreshRounds))
}
