package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"smartlearning-backend/internal/models"
)

type statsVideoStore interface {
	ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.VideoSummary, int, error)
	ListCompletedTimesSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
}

type statsQuizStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error)
}

const dashboardRecentVideos = 5

var progressPeriods = map[string]int{"7d": 7, "30d": 30, "90d": 90}

type StatsService struct {
	videos  statsVideoStore
	quizzes statsQuizStore
	now     func() time.Time
}

func NewStatsService(videos statsVideoStore, quizzes statsQuizStore) *StatsService {
	return &StatsService{videos: videos, quizzes: quizzes, now: time.Now}
}

func (s *StatsService) Dashboard(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	recent, total, err := s.videos.ListCompletedByUser(ctx, userID, dashboardRecentVideos, 0)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.VideoSummary{}
	}

	attempts := collectAttempts(quizzes, time.Time{})
	return &models.DashboardStats{
		TotalVideosProcessed: total,
		TotalQuizzes:         len(quizzes),
		TotalQuizAttempts:    len(attempts),
		AverageQuizScore:     averageScore(attempts),
		HighestQuizScore:     highestScore(attempts),
		RecentVideos:         recent,
	}, nil
}

// Progress summarizes activity over the period with one point per UTC day.
func (s *StatsService) Progress(ctx context.Context, userID uuid.UUID, period string) (*models.LearningProgress, error) {
	if period == "" {
		period = "7d"
	}
	days, ok := progressPeriods[period]
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"period": "Period must be one of 7d, 30d, 90d"}}
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	created, err := s.videos.ListCompletedTimesSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts := collectAttempts(quizzes, since)

	return &models.LearningProgress{
		Period:          period,
		Since:           since,
		VideosProcessed: len(created),
		QuizAttempts:    len(attempts),
		AverageScore:    averageScore(attempts),
		Daily:           dailyProgress(since, days, created, attempts),
	}, nil
}

func collectAttempts(quizzes []*models.Quiz, since time.Time) []models.QuizAttempt {
	var out []models.QuizAttempt
	for _, q := range quizzes {
		for _, a := range q.Attempts {
			if !a.AttemptedAt.Before(since) {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out
}

func averageScore(attempts []models.QuizAttempt) int {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Score
	}
	return (2*sum + len(attempts)) / (2 * len(attempts))
}

func highestScore(attempts []models.QuizAttempt) int {
	best := 0
	for _, a := range attempts {
		if a.Score > best {
			best = a.Score
		}
	}
	return best
}

func dailyProgress(since time.Time, days int, created []time.Time, attempts []models.QuizAttempt) []models.ProgressPoint {
	points := make([]models.ProgressPoint, days)
	scores := make([][]models.QuizAttempt, days)
	for i := range points {
		points[i].Date = since.AddDate(0, 0, i).Format("2006-01-02")
	}

	index := func(t time.Time) int {
		return int(t.UTC().Sub(since) / (24 * time.Hour))
	}
	for _, t := range created {
		if i := index(t); i >= 0 && i < days {
			points[i].Videos++
		}
	}
	for _, a := range attempts {
		if i := index(a.AttemptedAt); i >= 0 && i < days {
			points[i].Attempts++
			scores[i] = append(scores[i], a)
		}
	}
	for i := range points {
		points[i].AvgScore = averageScore(scores[i])
	}
	return points
}
