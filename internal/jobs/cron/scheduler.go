package cronjob

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// Specs carry a seconds field.
	HourlySpec  = "0 0 * * * *"
	NightlySpec = "0 30 3 * * *"

	jobTimeout = 5 * time.Minute
)

type StaleSessionCloser interface {
	CloseStale(ctx context.Context) (int64, error)
}

type IdleRoomArchiver interface {
	ArchiveIdle(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs in UTC.
type Scheduler struct {
	cron     *cron.Cron
	sessions StaleSessionCloser
	rooms    IdleRoomArchiver
	log      *logrus.Entry
}

func NewScheduler(sessions StaleSessionCloser, rooms IdleRoomArchiver) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		sessions: sessions,
		rooms:    rooms,
		log:      logrus.WithField("component", "cron"),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(HourlySpec, func() { s.CloseStaleSessions(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(NightlySpec, func() { s.ArchiveIdleRooms(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("cron scheduler started (stale sessions hourly, idle rooms nightly)")
	return nil
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron scheduler stopped")
}

func (s *Scheduler) CloseStaleSessions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := s.sessions.CloseStale(ctx)
	if err != nil {
		s.log.WithError(err).Error("close stale sessions failed")
		return
	}
	s.log.WithField("closed", n).Info("stale sessions closed")
}

func (s *Scheduler) ArchiveIdleRooms(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := s.rooms.ArchiveIdle(ctx)
	if err != nil {
		s.log.WithError(err).Error("archive idle rooms failed")
		return
	}
	s.log.WithField("archived", n).Info("idle rooms archived")
}
