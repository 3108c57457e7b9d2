package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/repository"
)

type stubVideoStore struct {
	mu        sync.Mutex
	created   []*models.Video
	quizzes   []*models.Quiz
	failed    []*models.Video
	createErr error
	failErr   error

	listTotal  int
	listLimit  int
	listOffset int
	deleted    []uuid.UUID
}

func (s *stubVideoStore) CreateWithQuiz(ctx context.Context, v *models.Video, q *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	q.ID = uuid.New()
	q.VideoID = v.ID
	q.UserID = v.UserID
	v.QuizID = &q.ID
	s.created = append(s.created, v)
	s.quizzes = append(s.quizzes, q)
	return nil
}

func (s *stubVideoStore) CreateFailed(ctx context.Context, v *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	v.ID = uuid.New()
	s.failed = append(s.failed, v)
	return nil
}

func (s *stubVideoStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Video, error) {
	for _, v := range s.created {
		if v.ID == id && v.UserID == userID {
			return v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubVideoStore) ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.VideoSummary, int, error) {
	s.listLimit, s.listOffset = limit, offset
	return []models.VideoSummary{}, s.listTotal, nil
}

func (s *stubVideoStore) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	for i, v := range s.created {
		if v.ID == id && v.UserID == userID {
			s.created = append(s.created[:i], s.created[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type stubQuizLookup struct{ store *stubVideoStore }

func (l stubQuizLookup) GetByVideoForUser(ctx context.Context, videoID, userID uuid.UUID) (*models.Quiz, error) {
	for _, q := range l.store.quizzes {
		if q.VideoID == videoID && q.UserID == userID {
			return q, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubTranscripts struct {
	result *FetchResult
	err    error
	calls  int
}

func (s *stubTranscripts) Fetch(ctx context.Context, videoURL string) (*FetchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubMetadata struct {
	meta *models.VideoMetadata
	err  error
}

func (s stubMetadata) Lookup(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	return s.meta, s.err
}

type failingGenerator struct {
	*MockGenerator
	quizErr error
}

func (g failingGenerator) GenerateQuiz(ctx context.Context, transcript string) ([]models.QuizQuestion, error) {
	return nil, g.quizErr
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.WSMessage
}

func (p *recordingPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Type
	}
	return out
}

type learningFixture struct {
	svc         *LearningService
	videos      *stubVideoStore
	transcripts *stubTranscripts
	progress    *recordingPublisher
	userID      uuid.UUID
}

func newLearningFixture(generator ContentGenerator) *learningFixture {
	videos := &stubVideoStore{}
	transcripts := &stubTranscripts{result: &FetchResult{
		VideoID:  "dQw4w9WgXcQ",
		RawText:  "um " + sampleLecture,
		Strategy: "page",
	}}
	progress := &recordingPublisher{}
	svc := NewLearningService(
		videos,
		stubQuizLookup{store: videos},
		transcripts,
		stubMetadata{meta: &models.VideoMetadata{Title: "Photosynthesis 101", ThumbnailURL: "https://i.ytimg.com/x.jpg", DurationSeconds: 600}},
		generator,
		NewFileExtractService(),
		progress,
		logger.Nop(),
	)
	return &learningFixture{svc: svc, videos: videos, transcripts: transcripts, progress: progress, userID: uuid.New()}
}

func TestLearningService_ProcessVideo(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())

	res, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fx.videos.created) != 1 {
		t.Fatalf("expected one stored record, got %d", len(fx.videos.created))
	}
	v := fx.videos.created[0]
	if v.Status != models.VideoStatusCompleted || v.ExternalID != "dQw4w9WgXcQ" || v.UserID != fx.userID {
		t.Fatalf("unexpected record: %+v", v)
	}
	if strings.HasPrefix(v.Transcript.Cleaned, "um") || !strings.HasPrefix(v.Transcript.Raw, "um") {
		t.Fatal("raw transcript should be kept and cleaned transcript stored separately")
	}
	if v.Title != "Photosynthesis 101" || v.ThumbnailURL == nil || v.DurationSeconds == nil || *v.DurationSeconds != 600 {
		t.Fatalf("metadata not applied: %+v", v)
	}
	if v.Metadata.Source != models.SourceYouTube || v.Metadata.Strategy != "page" || v.Metadata.Language != "en" {
		t.Fatalf("unexpected processing metadata: %+v", v.Metadata)
	}
	if v.Content.GeneratedAt == nil || v.Content.Summary == "" || len(v.Content.KeyPoints) < 5 {
		t.Fatalf("generated content missing: %+v", v.Content)
	}

	if res.Video.ID != v.ID || res.Quiz.ID != *v.QuizID || res.Quiz.QuestionCount != 10 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(fx.videos.quizzes[0].Questions) != 10 || fx.videos.quizzes[0].TotalQuestions != 10 {
		t.Fatal("quiz should be stored with ten questions")
	}

	types := fx.progress.types()
	if len(types) == 0 || types[len(types)-1] != "completed" {
		t.Fatalf("expected progress ending in completed, got %v", types)
	}
}

func TestLearningService_ProcessVideoMetadataIsBestEffort(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	fx.svc.metadata = stubMetadata{err: errors.New("blocked")}

	if _, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL); err != nil {
		t.Fatalf("metadata failure must not fail processing: %v", err)
	}
	if fx.videos.created[0].Title != "" {
		t.Fatal("title should stay empty without metadata")
	}
}

func TestLearningService_TranscriptFailuresAreAudited(t *testing.T) {
	tests := []struct {
		name   string
		result *FetchResult
		err    error
		wantID string
	}{
		{"unavailable", nil, &TranscriptUnavailableError{VideoID: "abc123def45", Reason: ReasonNoCaptions}, "abc123def45"},
		{"too short", &FetchResult{VideoID: "shortvid123", RawText: "um a tiny caption"}, nil, "shortvid123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newLearningFixture(NewMockGenerator())
			fx.transcripts.result, fx.transcripts.err = tc.result, tc.err

			_, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
			if err == nil {
				t.Fatal("expected an error")
			}
			if len(fx.videos.created) != 0 {
				t.Fatal("no completed record should be stored")
			}
			if len(fx.videos.failed) != 1 {
				t.Fatalf("expected one failed record, got %d", len(fx.videos.failed))
			}
			f := fx.videos.failed[0]
			if f.Status != models.VideoStatusFailed || f.ExternalID != tc.wantID || f.Error == nil || f.Error.Message != err.Error() {
				t.Fatalf("unexpected failed record: %+v", f)
			}
			types := fx.progress.types()
			if types[len(types)-1] != "error" {
				t.Fatalf("expected an error event, got %v", types)
			}
		})
	}
}

func TestLearningService_InvalidReferenceIsNotAudited(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	fx.transcripts.err = &InvalidReferenceError{Input: "nope"}

	_, err := fx.svc.ProcessVideo(context.Background(), fx.userID, "nope")
	var ref *InvalidReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("expected InvalidReferenceError, got %v", err)
	}
	if len(fx.videos.failed) != 0 {
		t.Fatal("invalid references should not create failed records")
	}
}

func TestLearningService_AuditFailureIsSwallowed(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	fx.transcripts.err = &TranscriptUnavailableError{VideoID: "abc123def45", Reason: ReasonKeyMissing}
	fx.videos.failErr = errors.New("db down")

	_, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	var unavailable *TranscriptUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("original error should propagate, got %v", err)
	}
}

func TestLearningService_GenerationFailurePersistsNothing(t *testing.T) {
	fx := newLearningFixture(failingGenerator{MockGenerator: NewMockGenerator(), quizErr: &QuizGenerationError{Reason: "bad"}})

	_, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	var qerr *QuizGenerationError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected QuizGenerationError, got %v", err)
	}
	if len(fx.videos.created) != 0 || len(fx.videos.failed) != 0 {
		t.Fatal("nothing should be persisted after a generation failure")
	}
}

func TestLearningService_UnconfiguredGeneratorFailsFast(t *testing.T) {
	fx := newLearningFixture(NewUnavailableGenerator())

	_, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if fx.transcripts.calls != 0 {
		t.Fatal("transcript should not be fetched without a generator")
	}
}

func TestLearningService_ProcessManualText(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())

	res, err := fx.svc.ProcessManualText(context.Background(), fx.userID, ManualTranscriptInput{
		Title:      "  Plant biology  ",
		Transcript: sampleLecture,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := fx.videos.created[0]
	if v.VideoURL != models.ManualVideoURL || !strings.HasPrefix(v.ExternalID, "manual-") {
		t.Fatalf("unexpected manual record: url %q id %q", v.VideoURL, v.ExternalID)
	}
	if v.Title != "Plant biology" || v.Metadata.Source != models.SourceManual {
		t.Fatalf("unexpected manual record: %+v", v)
	}
	for _, kp := range v.Content.KeyPoints {
		if kp.Timestamp != "" {
			t.Fatalf("manual key points carry no timestamp: %+v", kp)
		}
	}
	if res.Video.VideoURL != models.ManualVideoURL {
		t.Fatalf("unexpected result url %q", res.Video.VideoURL)
	}
	if fx.transcripts.calls != 0 {
		t.Fatal("manual processing must not fetch captions")
	}
}

func TestLearningService_ProcessManualTextValidation(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())

	_, err := fx.svc.ProcessManualText(context.Background(), fx.userID, ManualTranscriptInput{Title: " ", Transcript: " "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Fatalf("missing title field: %v", verr.Fields)
	}
	if _, ok := verr.Fields["transcript"]; !ok {
		t.Fatalf("missing transcript field: %v", verr.Fields)
	}

	_, err = fx.svc.ProcessManualText(context.Background(), fx.userID, ManualTranscriptInput{
		Title:      "Short",
		Transcript: "um uh this is basically too short",
	})
	var short *TranscriptTooShortError
	if !errors.As(err, &short) || short.Min != MinManualTranscriptChars {
		t.Fatalf("expected TranscriptTooShortError with min 50, got %v", err)
	}
	if len(fx.videos.failed) != 0 {
		t.Fatal("manual input failures are not audited")
	}
}

func TestLearningService_ProcessFile(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())

	_, err := fx.svc.ProcessFile(context.Background(), fx.userID, "", "lecture-notes.txt", strings.NewReader(sampleLecture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := fx.videos.created[0]
	if v.Title != "lecture-notes" || v.Metadata.Source != models.SourceFile {
		t.Fatalf("unexpected file record: title %q source %q", v.Title, v.Metadata.Source)
	}

	_, err = fx.svc.ProcessFile(context.Background(), fx.userID, "x", "slides.pptx", strings.NewReader("data"))
	var unsupported *UnsupportedFileError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFileError, got %v", err)
	}
}

func TestLearningService_GetVideo(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	res, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	detail, err := fx.svc.GetVideo(context.Background(), res.Video.ID, fx.userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Quiz == nil || detail.Quiz.ID != res.Quiz.ID || len(detail.Quiz.Questions) != 10 {
		t.Fatalf("detail should embed the learner quiz: %+v", detail.Quiz)
	}

	_, err = fx.svc.GetVideo(context.Background(), res.Video.ID, uuid.New())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("another user's record should be not found, got %v", err)
	}
}

func TestLearningService_ListHistoryPagination(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	fx.videos.listTotal = 23

	tests := []struct {
		page, limit         int
		wantLimit, wantOffs int
		wantPages           int
		wantMore            bool
	}{
		{0, 0, 10, 0, 3, true},
		{3, 10, 10, 20, 3, false},
		{2, 100, 50, 50, 1, false},
	}
	for _, tc := range tests {
		h, err := fx.svc.ListHistory(context.Background(), fx.userID, tc.page, tc.limit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fx.videos.listLimit != tc.wantLimit || fx.videos.listOffset != tc.wantOffs {
			t.Errorf("page %d limit %d: store got limit %d offset %d", tc.page, tc.limit, fx.videos.listLimit, fx.videos.listOffset)
		}
		if h.Pagination.TotalPages != tc.wantPages || h.Pagination.HasMore != tc.wantMore || h.Pagination.TotalVideos != 23 {
			t.Errorf("page %d limit %d: unexpected pagination %+v", tc.page, tc.limit, h.Pagination)
		}
	}
}

func TestLearningService_DeleteVideo(t *testing.T) {
	fx := newLearningFixture(NewMockGenerator())
	res, err := fx.svc.ProcessVideo(context.Background(), fx.userID, testVideoURL)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := fx.svc.DeleteVideo(context.Background(), res.Video.ID, uuid.New()); err == nil {
		t.Fatal("other users cannot delete the record")
	}
	if err := fx.svc.DeleteVideo(context.Background(), res.Video.ID, fx.userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = fx.svc.DeleteVideo(context.Background(), res.Video.ID, fx.userID)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
