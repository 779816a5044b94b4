package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"safeguard/internal/models"
)

// drillMessages are the canned hostile snippets the simulated source emits.
// Several score above the detection threshold so drills exercise the whole
// alert path; the rest are sub-threshold noise.
var drillMessages = []string{
	"I will kill you and destroy everything you care about, you worthless loser",
	"I'm going to hurt you if you don't do what I say",
	"I know where you live, I've been following you all week",
	"You are so stupid and ugly, nobody will ever believe you",
	"You better answer my calls right now",
	"Hey, are we still on for lunch tomorrow?",
}

// DrillConfig configures the simulated capture source.
type DrillConfig struct {
	Enabled  bool
	Interval time.Duration // used when Cron is empty
	Cron     string        // standard 5-field cron expression
	Chance   float64       // probability a firing emits a message, in [0,1]
}

// SimulatedSource periodically feeds canned hostile messages through the
// same capture path as real sources. The firing probability and RNG are
// injectable so tests supply deterministic fixtures instead of sampling.
type SimulatedSource struct {
	monitor   *MonitorService
	scheduler gocron.Scheduler
	job       gocron.Job
	chance    float64
	randFn    func() float64
	pickFn    func(n int) int
}

// NewSimulatedSource builds the drill source. randFn and pickFn default to
// math/rand when nil.
func NewSimulatedSource(monitor *MonitorService, cfg DrillConfig, randFn func() float64, pickFn func(n int) int) (*SimulatedSource, error) {
	if cfg.Chance < 0 || cfg.Chance > 1 {
		return nil, fmt.Errorf("drill chance must be in [0,1], got %v", cfg.Chance)
	}
	if randFn == nil {
		randFn = rand.Float64
	}
	if pickFn == nil {
		pickFn = rand.Intn
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create drill scheduler: %w", err)
	}

	s := &SimulatedSource{
		monitor:   monitor,
		scheduler: scheduler,
		chance:    cfg.Chance,
		randFn:    randFn,
		pickFn:    pickFn,
	}

	var def gocron.JobDefinition
	if cfg.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Cron); err != nil {
			return nil, fmt.Errorf("invalid drill cron expression %q: %w", cfg.Cron, err)
		}
		def = gocron.CronJob(cfg.Cron, false)
	} else {
		interval := cfg.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		def = gocron.DurationJob(interval)
	}

	job, err := scheduler.NewJob(def, gocron.NewTask(s.fire))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule drill job: %w", err)
	}
	s.job = job

	return s, nil
}

// Start begins the drill schedule.
func (s *SimulatedSource) Start() {
	s.scheduler.Start()
	log.Printf("🧪 [DRILL] Simulated capture source started (chance %.2f)", s.chance)
}

// Stop shuts the drill scheduler down.
func (s *SimulatedSource) Stop() error {
	return s.scheduler.Shutdown()
}

// NextRun reports when the drill fires next.
func (s *SimulatedSource) NextRun() (time.Time, bool) {
	if s.job == nil {
		return time.Time{}, false
	}
	next, err := s.job.NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// fire emits one canned message with the configured probability. Captures
// while the session is stopped are dropped by the monitor, same as every
// other source.
func (s *SimulatedSource) fire() {
	if s.randFn() >= s.chance {
		return
	}

	msg := drillMessages[s.pickFn(len(drillMessages))]
	_, recorded, err := s.monitor.OnCapturedText(context.Background(), msg, models.SourceSimulated)
	if err != nil {
		if !errors.Is(err, ErrNotMonitoring) {
			log.Printf("⚠️  [DRILL] Capture failed: %v", err)
		}
		return
	}
	if recorded {
		log.Println("🧪 [DRILL] Simulated message scored above threshold, alert recorded")
	}
}
