package domain

import (
	"strconv"
	"strings"
	"time"
)

var (
	MoodColumns    = []string{"id", "logged_at", "mood", "energy", "emotions", "note"}
	SessionColumns = []string{"id", "subject", "source", "started_at", "ended_at", "duration_minutes", "notes"}
)

type MoodRecord struct {
	ID       string    `json:"id"`
	LoggedAt time.Time `json:"logged_at"`
	Mood     int       `json:"mood"`
	Energy   int       `json:"energy"`
	Emotions []string  `json:"emotions"`
	Note     string    `json:"note"`
}

func (r MoodRecord) CSV() []string {
	return []string{
		r.ID,
		r.LoggedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Mood),
		strconv.Itoa(r.Energy),
		strings.Join(r.Emotions, ";"),
		r.Note,
	}
}

type SessionRecord struct {
	ID              string     `json:"id"`
	Subject         string     `json:"subject"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
}

func (r SessionRecord) CSV() []string {
	ended := ""
	if r.EndedAt != nil {
		ended = r.EndedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.ID,
		r.Subject,
		r.Source,
		r.StartedAt.UTC().Format(time.RFC3339),
		ended,
		strconv.Itoa(r.DurationMinutes),
		r.Notes,
	}
}
