package domain

import (
	"errors"
	"time"
)

const (
	MinMood     = 1
	MaxMood     = 5
	MaxEnergy   = 5
	MaxEmotions = 8
	MaxNoteLen  = 2000

	// FutureSkew is how far ahead of the server clock logged_at may be.
	FutureSkew = 5 * time.Minute

	DefaultListDays = 30
	MaxStatsDays    = 365
)

var (
	ErrNotFound        = errors.New("mood log not found")
	ErrInvalidMood     = errors.New("mood must be between 1 and 5")
	ErrInvalidEnergy   = errors.New("energy must be between 0 and 5")
	ErrTooManyEmotions = errors.New("at most 8 emotions are allowed")
	ErrNoteTooLong     = errors.New("note must be at most 2000 characters")
	ErrFutureLoggedAt  = errors.New("logged_at cannot be in the future")
	ErrInvalidRange    = errors.New("invalid time range")
)

type MoodLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      int       `json:"mood"`
	Energy    int       `json:"energy"`
	Emotions  []string  `json:"emotions"`
	Note      string    `json:"note"`
	LoggedAt  time.Time `json:"logged_at"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateMoodRequest struct {
	Mood     int
	Energy   int
	Emotions []string
	Note     string
	LoggedAt *time.Time
}

type DailyMood struct {
	Date        string  `json:"date"`
	AverageMood float64 `json:"average_mood"`
	Count       int     `json:"count"`
}

type EmotionCount struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
}

type MoodStats struct {
	Days          int            `json:"days"`
	Count         int            `json:"count"`
	AverageMood   float64        `json:"average_mood"`
	AverageEnergy float64        `json:"average_energy"`
	Daily         []DailyMood    `json:"daily"`
	TopEmotions   []EmotionCount `json:"top_emotions"`
}
