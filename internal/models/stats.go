package models

import "time"

type DashboardStats struct {
	TotalVideosProcessed int            `json:"total_videos_processed"`
	TotalQuizzes         int            `json:"total_quizzes"`
	TotalQuizAttempts    int            `json:"total_quiz_attempts"`
	AverageQuizScore     int            `json:"average_quiz_score"`
	HighestQuizScore     int            `json:"highest_quiz_score"`
	RecentVideos         []VideoSummary `json:"recent_videos"`
}

type ProgressPoint struct {
	Date     string `json:"date"`
	Videos   int    `json:"videos"`
	Attempts int    `json:"attempts"`
	AvgScore int    `json:"avg_score"`
}

type LearningProgress struct {
	Period          string          `json:"period"`
	Since           time.Time       `json:"since"`
	VideosProcessed int             `json:"videos_processed"`
	QuizAttempts    int             `json:"quiz_attempts"`
	AverageScore    int             `json:"average_score"`
	Daily           []ProgressPoint `json:"daily"`
}
