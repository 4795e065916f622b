package domain

import (
	"errors"
	"fmt"
	"time"
)

type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// maxCatchUp bounds how many elapsed phases a single read replays. A timer
// left auto-cycling for longer is stopped at the start of a work phase.
const maxCatchUp = 200

var (
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrInvalidSettings   = errors.New("invalid timer settings")
)

type Settings struct {
	WorkMinutes       int    `json:"work_minutes"`
	ShortBreakMinutes int    `json:"short_break_minutes"`
	LongBreakMinutes  int    `json:"long_break_minutes"`
	LongBreakInterval int    `json:"long_break_interval"`
	AutoStartBreaks   bool   `json:"auto_start_breaks"`
	AutoStartWork     bool   `json:"auto_start_work"`
	Subject           string `json:"subject"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		LongBreakInterval: 4,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.WorkMinutes < 1 || s.WorkMinutes > 120:
		return fmt.Errorf("%w: work_minutes must be between 1 and 120", ErrInvalidSettings)
	case s.ShortBreakMinutes < 1 || s.ShortBreakMinutes > 60:
		return fmt.Errorf("%w: short_break_minutes must be between 1 and 60", ErrInvalidSettings)
	case s.LongBreakMinutes < 1 || s.LongBreakMinutes > 90:
		return fmt.Errorf("%w: long_break_minutes must be between 1 and 90", ErrInvalidSettings)
	case s.LongBreakInterval < 1 || s.LongBreakInterval > 12:
		return fmt.Errorf("%w: long_break_interval must be between 1 and 12", ErrInvalidSettings)
	case len([]rune(s.Subject)) > 100:
		return fmt.Errorf("%w: subject must be at most 100 characters", ErrInvalidSettings)
	}
	return nil
}

func (s Settings) Duration(p Phase) time.Duration {
	switch p {
	case PhaseShortBreak:
		return time.Duration(s.ShortBreakMinutes) * time.Minute
	case PhaseLongBreak:
		return time.Duration(s.LongBreakMinutes) * time.Minute
	default:
		return time.Duration(s.WorkMinutes) * time.Minute
	}
}

// Timer is the persisted pomodoro state of one user.
//
// While running, EndsAt is set and Remaining is ignored. While idle or
// paused, Remaining holds the time left in the current phase.
type Timer struct {
	UserID         string        `json:"user_id"`
	Settings       Settings      `json:"settings"`
	Phase          Phase         `json:"phase"`
	Status         Status        `json:"status"`
	PhaseStartedAt *time.Time    `json:"phase_started_at,omitempty"`
	EndsAt         *time.Time    `json:"ends_at,omitempty"`
	Remaining      time.Duration `json:"remaining"`
	CompletedWork  int           `json:"completed_work"`
	Cycle          int           `json:"cycle"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CompletedPhase describes a work phase that ran to its end.
type CompletedPhase struct {
	StartedAt time.Time
	Minutes   int
	Subject   string
}

func NewTimer(userID string) *Timer {
	s := DefaultSettings()
	return &Timer{
		UserID:    userID,
		Settings:  s,
		Phase:     PhaseWork,
		Status:    StatusIdle,
		Remaining: s.Duration(PhaseWork),
	}
}

// RemainingAt reports the time left in the current phase at now.
func (t *Timer) RemainingAt(now time.Time) time.Duration {
	if t.Status == StatusRunning && t.EndsAt != nil {
		if d := t.EndsAt.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return t.Remaining
}

// Advance completes every running phase whose end time has passed and
// returns the work phases that finished.
func (t *Timer) Advance(now time.Time) []CompletedPhase {
	var done []CompletedPhase
	for i := 0; t.Status == StatusRunning && t.EndsAt != nil && !now.Before(*t.EndsAt); i++ {
		if i == maxCatchUp {
			t.stopAtWork()
			break
		}
		end := *t.EndsAt
		if t.Phase == PhaseWork {
			start := end.Add(-t.Settings.Duration(PhaseWork))
			if t.PhaseStartedAt != nil {
				start = *t.PhaseStartedAt
			}
			done = append(done, CompletedPhase{
				StartedAt: start,
				Minutes:   t.Settings.WorkMinutes,
				Subject:   t.Settings.Subject,
			})
		}
		t.next(end, true)
	}
	return done
}

func (t *Timer) Start(now time.Time) error {
	if t.Status != StatusIdle {
		return ErrInvalidTransition
	}
	t.run(now, t.Remaining)
	return nil
}

func (t *Timer) Pause(now time.Time) error {
	if t.Status != StatusRunning {
		return ErrInvalidTransition
	}
	t.Remaining = t.RemainingAt(now)
	t.EndsAt = nil
	t.Status = StatusPaused
	return nil
}

func (t *Timer) Resume(now time.Time) error {
	if t.Status != StatusPaused {
		return ErrInvalidTransition
	}
	started := t.PhaseStartedAt
	t.run(now, t.Remaining)
	if started != nil {
		t.PhaseStartedAt = started
	}
	return nil
}

// Skip moves to the next phase without crediting the current one.
func (t *Timer) Skip(now time.Time) {
	t.next(now, false)
}

func (t *Timer) Reset() {
	t.Phase = PhaseWork
	t.CompletedWork = 0
	t.Cycle = 0
	t.stopAtWork()
}

// UpdateSettings replaces the settings of an idle timer.
func (t *Timer) UpdateSettings(s Settings) error {
	if t.Status != StatusIdle {
		return ErrInvalidTransition
	}
	if err := s.Validate(); err != nil {
		return err
	}
	t.Settings = s
	t.Remaining = s.Duration(t.Phase)
	return nil
}

func (t *Timer) next(at time.Time, completed bool) {
	switch t.Phase {
	case PhaseWork:
		if completed {
			t.CompletedWork++
		}
		if completed && t.CompletedWork%t.Settings.LongBreakInterval == 0 {
			t.Phase = PhaseLongBreak
		} else {
			t.Phase = PhaseShortBreak
		}
	case PhaseLongBreak:
		t.Cycle++
		t.Phase = PhaseWork
	default:
		t.Phase = PhaseWork
	}

	auto := t.Settings.AutoStartWork
	if t.Phase != PhaseWork {
		auto = t.Settings.AutoStartBreaks
	}
	if auto {
		t.run(at, t.Settings.Duration(t.Phase))
		return
	}
	t.Status = StatusIdle
	t.PhaseStartedAt = nil
	t.EndsAt = nil
	t.Remaining = t.Settings.Duration(t.Phase)
}

func (t *Timer) run(at time.Time, d time.Duration) {
	if d <= 0 {
		d = t.Settings.Duration(t.Phase)
	}
	started := at
	ends := at.Add(d)
	t.Status = StatusRunning
	t.PhaseStartedAt = &started
	t.EndsAt = &ends
	t.Remaining = 0
}

func (t *Timer) stopAtWork() {
	t.Phase = PhaseWork
	t.Status = StatusIdle
	t.PhaseStartedAt = nil
	t.EndsAt = nil
	t.Remaining = t.Settings.Duration(PhaseWork)
}

// View is the client representation of a timer at a point in time.
type View struct {
	Phase            Phase      `json:"phase"`
	Status           Status     `json:"status"`
	Settings         Settings   `json:"settings"`
	PhaseStartedAt   *time.Time `json:"phase_started_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
	CompletedWork    int        `json:"completed_work"`
	Cycle            int        `json:"cycle"`
	ServerTime       time.Time  `json:"server_time"`
}

func (t *Timer) View(now time.Time) View {
	return View{
		Phase:            t.Phase,
		Status:           t.Status,
		Settings:         t.Settings,
		PhaseStartedAt:   t.PhaseStartedAt,
		EndsAt:           t.EndsAt,
		RemainingSeconds: int((t.RemainingAt(now) + time.Second - 1) / time.Second),
		CompletedWork:    t.CompletedWork,
		Cycle:            t.Cycle,
		ServerTime:       now,
	}
}
