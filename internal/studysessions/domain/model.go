package domain

import (
	"errors"
	"time"
)

const (
	SourceManual   = "manual"
	SourceTimer    = "timer"
	SourcePomodoro = "pomodoro"

	MinDurationMinutes = 1
	MaxDurationMinutes = 720
	MaxSubjectLen      = 100
	MaxNotesLen        = 2000
	DefaultSubject     = "General"

	// StaleAfter is how long a live session may stay open before the
	// worker closes it.
	StaleAfter = 12 * time.Hour

	DefaultSummaryDays = 7
	MaxSummaryDays     = 365
)

var (
	ErrNotFound        = errors.New("study session not found")
	ErrInvalidDuration = errors.New("duration must be between 1 and 720 minutes")
	ErrInvalidSubject  = errors.New("subject must be at most 100 characters")
	ErrNotesTooLong    = errors.New("notes must be at most 2000 characters")
	ErrSessionOpen     = errors.New("a study session is already running")
	ErrAlreadyStopped  = errors.New("study session already stopped")
	ErrInvalidRange    = errors.New("invalid time range")
)

type StudySession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Subject         string     `json:"subject"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Open reports whether the session is still running.
func (s *StudySession) Open() bool { return s.EndedAt == nil }

type LogSessionRequest struct {
	Subject         string
	DurationMinutes int
	StartedAt       *time.Time
	Notes           string
}

type SubjectMinutes struct {
	Subject string `json:"subject"`
	Minutes int    `json:"minutes"`
}

type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

type Summary struct {
	Days         int              `json:"days"`
	TotalMinutes int              `json:"total_minutes"`
	SessionCount int              `json:"session_count"`
	BySubject    []SubjectMinutes `json:"by_subject"`
	ByDay        []DayMinutes     `json:"by_day"`
}
