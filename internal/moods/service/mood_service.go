package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyhaven/studyhaven-backend/internal/moods/domain"
)

type MoodStore interface {
	Create(ctx context.Context, m *domain.MoodLog) error
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]domain.MoodLog, error)
	Latest(ctx context.Context, userID string) (*domain.MoodLog, error)
	Delete(ctx context.Context, userID, id string) error
}

type MoodService struct {
	repo MoodStore
	now  func() time.Time
}

func NewMoodService(repo MoodStore) *MoodService {
	return &MoodService{repo: repo, now: time.Now}
}

func (s *MoodService) Create(ctx context.Context, userID string, req domain.CreateMoodRequest) (*domain.MoodLog, error) {
	if req.Mood < domain.MinMood || req.Mood > domain.MaxMood {
		return nil, domain.ErrInvalidMood
	}
	if req.Energy < 0 || req.Energy > domain.MaxEnergy {
		return nil, domain.ErrInvalidEnergy
	}
	note := strings.TrimSpace(req.Note)
	if utf8.RuneCountInString(note) > domain.MaxNoteLen {
		return nil, domain.ErrNoteTooLong
	}
	emotions := normalizeEmotions(req.Emotions)
	if len(emotions) > domain.MaxEmotions {
		return nil, domain.ErrTooManyEmotions
	}

	now := s.now().UTC()
	loggedAt := now
	if req.LoggedAt != nil {
		loggedAt = req.LoggedAt.UTC()
		if loggedAt.After(now.Add(domain.FutureSkew)) {
			return nil, domain.ErrFutureLoggedAt
		}
	}

	m := &domain.MoodLog{
		ID:       uuid.NewString(),
		UserID:   userID,
		Mood:     req.Mood,
		Energy:   req.Energy,
		Emotions: emotions,
		Note:     note,
		LoggedAt: loggedAt,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns logs in [from, to). Zero bounds default to the last 30 days.
func (s *MoodService) List(ctx context.Context, userID string, from, to time.Time) ([]domain.MoodLog, error) {
	if to.IsZero() {
		to = s.now().UTC().Add(domain.FutureSkew)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -domain.DefaultListDays)
	}
	if !from.Before(to) {
		return nil, domain.ErrInvalidRange
	}
	return s.repo.ListByRange(ctx, userID, from, to)
}

func (s *MoodService) Latest(ctx context.Context, userID string) (*domain.MoodLog, error) {
	return s.repo.Latest(ctx, userID)
}

func (s *MoodService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

// Stats aggregates the last `days` days of logs.
func (s *MoodService) Stats(ctx context.Context, userID string, days int) (*domain.MoodStats, error) {
	if days < 1 || days > domain.MaxStatsDays {
		return nil, domain.ErrInvalidRange
	}
	to := s.now().UTC().Add(domain.FutureSkew)
	from := to.AddDate(0, 0, -days)

	logs, err := s.repo.ListByRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return Aggregate(logs, days), nil
}

// Aggregate computes mood statistics over logs.
func Aggregate(logs []domain.MoodLog, days int) *domain.MoodStats {
	stats := &domain.MoodStats{
		Days:        days,
		Count:       len(logs),
		Daily:       []domain.DailyMood{},
		TopEmotions: []domain.EmotionCount{},
	}
	if len(logs) == 0 {
		return stats
	}

	type dayAcc struct{ sum, n int }
	byDay := map[string]*dayAcc{}
	emotionCounts := map[string]int{}
	moodSum, energySum, energyN := 0, 0, 0

	for _, l := range logs {
		moodSum += l.Mood
		if l.Energy > 0 {
			energySum += l.Energy
			energyN++
		}
		day := l.LoggedAt.UTC().Format("2006-01-02")
		acc, ok := byDay[day]
		if !ok {
			acc = &dayAcc{}
			byDay[day] = acc
		}
		acc.sum += l.Mood
		acc.n++
		for _, e := range l.Emotions {
			emotionCounts[e]++
		}
	}

	stats.AverageMood = round2(float64(moodSum) / float64(len(logs)))
	if energyN > 0 {
		stats.AverageEnergy = round2(float64(energySum) / float64(energyN))
	}

	for day, acc := range byDay {
		stats.Daily = append(stats.Daily, domain.DailyMood{
			Date:        day,
			AverageMood: round2(float64(acc.sum) / float64(acc.n)),
			Count:       acc.n,
		})
	}
	sort.Slice(stats.Daily, func(i, j int) bool { return stats.Daily[i].Date < stats.Daily[j].Date })

	for e, n := range emotionCounts {
		stats.TopEmotions = append(stats.TopEmotions, domain.EmotionCount{Emotion: e, Count: n})
	}
	sort.Slice(stats.TopEmotions, func(i, j int) bool {
		if stats.TopEmotions[i].Count != stats.TopEmotions[j].Count {
			return stats.TopEmotions[i].Count > stats.TopEmotions[j].Count
		}
		return stats.TopEmotions[i].Emotion < stats.TopEmotions[j].Emotion
	})
	if len(stats.TopEmotions) > 5 {
		stats.TopEmotions = stats.TopEmotions[:5]
	}
	return stats
}

func normalizeEmotions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
