package scheduler

import (
	"time"

	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper drops visitor state that has been idle for too long
type Sweeper interface {
	Sweep(idle time.Duration) int
	Len() int
}

// SessionSweeper runs a Sweeper on a cron schedule
type SessionSweeper struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	idle    time.Duration
}

// NewSessionSweeper sweeps state idle for longer than idle. spec is a cron
// spec or descriptor such as "@every 5m".
func NewSessionSweeper(sweeper Sweeper, spec string, idle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
		idle:    idle,
	}
}

func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.RunOnce)
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"spec":     s.spec,
		"idle_ttl": s.idle.String(),
	})
	return nil
}

// RunOnce sweeps immediately
func (s *SessionSweeper) RunOnce() {
	removed := s.sweeper.Sweep(s.idle)
	if removed > 0 {
		logger.Info("Swept idle visitor state", map[string]interface{}{
			"removed":   removed,
			"remaining": s.sweeper.Len(),
		})
	}
}

func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped")
}
