package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/repository"
)

type videoStore interface {
	CreateWithQuiz(ctx context.Context, v *models.Video, q *models.Quiz) error
	CreateFailed(ctx context.Context, v *models.Video) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Video, error)
	ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.VideoSummary, int, error)
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type quizLookup interface {
	GetByVideoForUser(ctx context.Context, videoID, userID uuid.UUID) (*models.Quiz, error)
}

type transcriptSource interface {
	Fetch(ctx context.Context, videoURL string) (*FetchResult, error)
}

type metadataSource interface {
	Lookup(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}

type textExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
	processingSteps     = 4
	failureAuditTimeout = 5 * time.Second
)

// LearningService turns videos and transcripts into stored learning
// records with generated study content and a quiz.
type LearningService struct {
	videos      videoStore
	quizzes     quizLookup
	transcripts transcriptSource
	metadata    metadataSource
	generator   ContentGenerator
	files       textExtractor
	progress    ProgressPublisher
	log         *logger.Logger
	now         func() time.Time
}

func NewLearningService(
	videos videoStore,
	quizzes quizLookup,
	transcripts transcriptSource,
	metadata metadataSource,
	generator ContentGenerator,
	files textExtractor,
	progress ProgressPublisher,
	log *logger.Logger,
) *LearningService {
	if progress == nil {
		progress = noopPublisher{}
	}
	return &LearningService{
		videos:      videos,
		quizzes:     quizzes,
		transcripts: transcripts,
		metadata:    metadata,
		generator:   generator,
		files:       files,
		progress:    progress,
		log:         log.With("component", "learning"),
		now:         time.Now,
	}
}

// ProcessVideo fetches, cleans and validates the video's transcript,
// generates study content and stores the record with its quiz.
func (s *LearningService) ProcessVideo(ctx context.Context, userID uuid.UUID, videoURL string) (*models.ProcessResult, error) {
	result, err := s.processVideo(ctx, userID, videoURL)
	if err != nil {
		s.publishFailure(ctx, userID, err)
	}
	return result, err
}

func (s *LearningService) processVideo(ctx context.Context, userID uuid.UUID, videoURL string) (*models.ProcessResult, error) {
	start := s.now()
	if err := s.checkGenerator(); err != nil {
		return nil, err
	}

	s.step(ctx, userID, 1, "Fetching transcript")
	fetched, err := s.transcripts.Fetch(ctx, videoURL)
	if err != nil {
		s.recordFailure(ctx, userID, videoURL, "", err)
		metrics.ProcessedRecords.WithLabelValues(models.SourceYouTube, models.VideoStatusFailed).Inc()
		return nil, err
	}

	s.step(ctx, userID, 2, "Cleaning transcript")
	cleaned := CleanTranscript(fetched.RawText)
	if err := ValidateTranscriptLength(cleaned, MinTranscriptChars, MaxTranscriptChars); err != nil {
		s.recordFailure(ctx, userID, videoURL, fetched.VideoID, err)
		metrics.ProcessedRecords.WithLabelValues(models.SourceYouTube, models.VideoStatusFailed).Inc()
		return nil, err
	}

	video := &models.Video{
		UserID:     userID,
		VideoURL:   strings.TrimSpace(videoURL),
		ExternalID: fetched.VideoID,
		Transcript: models.Transcript{Raw: fetched.RawText, Cleaned: cleaned},
		Metadata:   models.ProcessingMetadata{Source: models.SourceYouTube, Strategy: fetched.Strategy},
	}
	s.applyMetadata(ctx, video)

	return s.complete(ctx, video, start)
}

type ManualTranscriptInput struct {
	Title      string
	Transcript string
	VideoURL   string
}

// ProcessManualText runs the pipeline on a transcript supplied by the user.
func (s *LearningService) ProcessManualText(ctx context.Context, userID uuid.UUID, in ManualTranscriptInput) (*models.ProcessResult, error) {
	result, err := s.processText(ctx, userID, in, models.SourceManual)
	if err != nil {
		s.publishFailure(ctx, userID, err)
	}
	return result, err
}

// ProcessFile extracts text from an uploaded document and runs the
// manual pipeline on it.
func (s *LearningService) ProcessFile(ctx context.Context, userID uuid.UUID, title, filename string, r io.Reader) (*models.ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, &ValidationError{Fields: map[string]string{"file": fmt.Sprintf("File exceeds the %d MB limit", MaxUploadBytes>>20)}}
	}

	text, err := s.files.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	result, err := s.processText(ctx, userID, ManualTranscriptInput{Title: title, Transcript: text}, models.SourceFile)
	if err != nil {
		s.publishFailure(ctx, userID, err)
	}
	return result, err
}

func (s *LearningService) processText(ctx context.Context, userID uuid.UUID, in ManualTranscriptInput, source string) (*models.ProcessResult, error) {
	start := s.now()

	title := strings.TrimSpace(in.Title)
	raw := strings.TrimSpace(in.Transcript)
	fields := make(map[string]string)
	if title == "" {
		fields["title"] = "Title is required"
	}
	if raw == "" {
		fields["transcript"] = "Transcript is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.checkGenerator(); err != nil {
		return nil, err
	}

	s.step(ctx, userID, 2, "Cleaning transcript")
	cleaned := CleanTranscript(raw)
	if err := ValidateTranscriptLength(cleaned, MinManualTranscriptChars, MaxTranscriptChars); err != nil {
		return nil, err
	}

	videoURL := strings.TrimSpace(in.VideoURL)
	if videoURL == "" {
		videoURL = models.ManualVideoURL
	}

	video := &models.Video{
		UserID:     userID,
		VideoURL:   videoURL,
		ExternalID: fmt.Sprintf("manual-%d", start.UnixMilli()),
		Title:      title,
		Transcript: models.Transcript{Raw: raw, Cleaned: cleaned},
		Metadata:   models.ProcessingMetadata{Source: source},
	}

	return s.complete(ctx, video, start)
}

// complete generates content for a record whose transcript is ready and
// stores it together with its quiz.
func (s *LearningService) complete(ctx context.Context, video *models.Video, start time.Time) (*models.ProcessResult, error) {
	source := video.Metadata.Source

	s.step(ctx, video.UserID, 3, "Generating study content")
	content, questions, err := s.generate(ctx, video.Transcript.Cleaned)
	if err != nil {
		metrics.ProcessedRecords.WithLabelValues(source, models.VideoStatusFailed).Inc()
		s.log.Warn("content generation failed", "user_id", video.UserID, "external_id", video.ExternalID, "error", err)
		return nil, err
	}

	if source != models.SourceYouTube {
		// no timing information exists for pasted text
		for i := range content.KeyPoints {
			content.KeyPoints[i].Timestamp = ""
		}
	}

	generatedAt := s.now().UTC()
	content.GeneratedAt = &generatedAt
	video.Content = content
	video.Status = models.VideoStatusCompleted
	video.Metadata.Language = "en"
	video.Metadata.TranscriptLength = utf8.RuneCountInString(video.Transcript.Cleaned)
	video.Metadata.ProcessingTimeMs = s.now().Sub(start).Milliseconds()

	quiz := &models.Quiz{Questions: questions, TotalQuestions: len(questions)}

	s.step(ctx, video.UserID, 4, "Saving")
	if err := s.videos.CreateWithQuiz(ctx, video, quiz); err != nil {
		metrics.ProcessedRecords.WithLabelValues(source, models.VideoStatusFailed).Inc()
		return nil, fmt.Errorf("failed to save learning record: %w", err)
	}

	metrics.ProcessedRecords.WithLabelValues(source, models.VideoStatusCompleted).Inc()
	s.log.Info("learning record created",
		"user_id", video.UserID, "video_id", video.ID, "quiz_id", quiz.ID,
		"source", source, "processing_ms", video.Metadata.ProcessingTimeMs)

	s.progress.Publish(ctx, video.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.StatusUpdate{
			RequestID: middleware.GetRequestID(ctx), Step: processingSteps, TotalSteps: processingSteps,
			StepName: "Completed", VideoID: &video.ID,
		},
	})

	return &models.ProcessResult{
		Video: models.ProcessedVideo{
			ID:         video.ID,
			VideoURL:   video.VideoURL,
			ExternalID: video.ExternalID,
			Title:      video.Title,
			Summary:    video.Content.Summary,
			KeyPoints:  video.Content.KeyPoints,
			CreatedAt:  video.CreatedAt,
		},
		Quiz: models.ProcessedQuiz{ID: quiz.ID, QuestionCount: len(quiz.Questions)},
	}, nil
}

// generate runs the three generation calls concurrently. The first
// failure cancels the others.
func (s *LearningService) generate(ctx context.Context, transcript string) (models.GeneratedContent, []models.QuizQuestion, error) {
	var (
		summary   string
		keyPoints []models.KeyPoint
		questions []models.QuizQuestion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.generator.GenerateSummary(gctx, transcript)
		return err
	})
	g.Go(func() error {
		var err error
		keyPoints, err = s.generator.GenerateKeyPoints(gctx, transcript)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.generator.GenerateQuiz(gctx, transcript)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.GeneratedContent{}, nil, err
	}

	return models.GeneratedContent{Summary: summary, KeyPoints: keyPoints}, questions, nil
}

func (s *LearningService) checkGenerator() error {
	if c, ok := s.generator.(availabilityChecker); ok {
		return c.Available()
	}
	return nil
}

func (s *LearningService) applyMetadata(ctx context.Context, video *models.Video) {
	if s.metadata == nil {
		return
	}
	meta, err := s.metadata.Lookup(ctx, video.ExternalID)
	if err != nil {
		s.log.Info("video metadata unavailable", "external_id", video.ExternalID, "error", err)
		return
	}
	video.Title = meta.Title
	if meta.ThumbnailURL != "" {
		video.ThumbnailURL = &meta.ThumbnailURL
	}
	if meta.DurationSeconds > 0 {
		video.DurationSeconds = &meta.DurationSeconds
	}
}

// recordFailure stores a failed record for transcript acquisition errors.
// Its own errors are logged and dropped.
func (s *LearningService) recordFailure(ctx context.Context, userID uuid.UUID, videoURL, externalID string, cause error) {
	var (
		unavailable *TranscriptUnavailableError
		tooShort    *TranscriptTooShortError
		tooLong     *TranscriptTooLongError
	)
	switch {
	case errors.As(cause, &unavailable):
		externalID = unavailable.VideoID
	case errors.As(cause, &tooShort), errors.As(cause, &tooLong):
	default:
		return
	}
	if externalID == "" {
		externalID = "unknown"
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureAuditTimeout)
	defer cancel()

	failed := &models.Video{
		UserID:     userID,
		VideoURL:   strings.TrimSpace(videoURL),
		ExternalID: externalID,
		Status:     models.VideoStatusFailed,
		Metadata:   models.ProcessingMetadata{Source: models.SourceYouTube, Language: "en"},
		Error:      &models.ProcessingError{Message: cause.Error(), Timestamp: s.now().UTC()},
	}
	if err := s.videos.CreateFailed(auditCtx, failed); err != nil {
		s.log.Error("failed to store failed learning record", "user_id", userID, "external_id", externalID, "error", err)
	}
}

func (s *LearningService) step(ctx context.Context, userID uuid.UUID, n int, name string) {
	s.progress.Publish(ctx, userID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			RequestID: middleware.GetRequestID(ctx), Step: n, TotalSteps: processingSteps, StepName: name,
		},
	})
}

func (s *LearningService) publishFailure(ctx context.Context, userID uuid.UUID, cause error) {
	s.progress.Publish(ctx, userID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			RequestID:    middleware.GetRequestID(ctx),
			ErrorCode:    "PROCESSING_FAILED",
			ErrorMessage: publicMessage(cause),
		},
	})
}

// publicMessage hides internal error detail from clients.
func publicMessage(err error) string {
	switch err.(type) {
	case *ValidationError, *InvalidReferenceError, *TranscriptUnavailableError,
		*TranscriptTooShortError, *TranscriptTooLongError, *QuizGenerationError,
		*ConfigurationError, *UnsupportedFileError:
		return err.Error()
	}
	return "Processing failed. Please try again."
}

// GetVideo returns an owned record with its quiz in learner form.
func (s *LearningService) GetVideo(ctx context.Context, id, userID uuid.UUID) (*models.VideoDetail, error) {
	video, err := s.videos.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Video not found"}
		}
		return nil, err
	}

	detail := &models.VideoDetail{Video: video}
	if video.QuizID != nil {
		quiz, err := s.quizzes.GetByVideoForUser(ctx, video.ID, userID)
		switch {
		case err == nil:
			detail.Quiz = LearnerView(quiz)
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, err
		}
	}
	return detail, nil
}

// ListHistory pages through completed records, newest first.
func (s *LearningService) ListHistory(ctx context.Context, userID uuid.UUID, page, limit int) (*models.VideoHistory, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	videos, total, err := s.videos.ListCompletedByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &models.VideoHistory{
		Videos: videos,
		Pagination: models.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalVideos: total,
			HasMore:     page < totalPages,
		},
	}, nil
}

// DeleteVideo removes an owned record together with its quiz and the
// owner's history entry.
func (s *LearningService) DeleteVideo(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.videos.DeleteForUser(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Message: "Video not found"}
		}
		return err
	}
	s.log.Info("learning record deleted", "user_id", userID, "video_id", id)
	return nil
}
