package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
)

const (
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxCaptionPayload = 16 << 20
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([^&\n?#]+)`),
}

// ExtractVideoID returns the video id from a watch, short or embed URL.
func ExtractVideoID(videoURL string) (string, error) {
	ref := strings.TrimSpace(videoURL)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(ref); len(m) > 1 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", &InvalidReferenceError{Input: videoURL}
}

type FetchResult struct {
	VideoID  string
	RawText  string
	Strategy string
}

// TranscriptCache stores raw caption text by video id.
type TranscriptCache interface {
	Get(ctx context.Context, videoID string) (string, bool)
	Set(ctx context.Context, videoID, text string)
}

// captionStrategy is one way of obtaining caption text. An error means
// the strategy produced nothing; the next one is tried.
type captionStrategy interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (string, error)
}

type TranscriptFetcher struct {
	strategies []captionStrategy
	cache      TranscriptCache
	hasAPIKey  bool
	log        *logger.Logger
}

type TranscriptFetcherOptions struct {
	YouTubeAPIKey   string
	HasAPIKey       bool
	LibraryFallback bool
	HTTPClient      *http.Client
	Cache           TranscriptCache
}

func NewTranscriptFetcher(ctx context.Context, opts TranscriptFetcherOptions, log *logger.Logger) (*TranscriptFetcher, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	strategies := []captionStrategy{
		&pageCaptionStrategy{client: client, baseURL: "https://www.youtube.com"},
	}

	if opts.HasAPIKey {
		svc, err := youtube.NewService(ctx, option.WithAPIKey(opts.YouTubeAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube Data API client: %w", err)
		}
		strategies = append(strategies, &dataAPICaptionStrategy{
			lookup:  &youtubeDataAPI{svc: svc},
			client:  client,
			baseURL: "https://www.youtube.com",
		})
	}

	if opts.LibraryFallback {
		strategies = append(strategies, newLibraryCaptionStrategy())
	}

	return &TranscriptFetcher{
		strategies: strategies,
		cache:      opts.Cache,
		hasAPIKey:  opts.HasAPIKey,
		log:        log.With("component", "transcript_fetcher"),
	}, nil
}

// Fetch resolves videoURL to a video id and returns its raw caption text
// from the first strategy that yields more than MinTranscriptChars.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoURL string) (*FetchResult, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if text, ok := f.cache.Get(ctx, videoID); ok {
			return &FetchResult{VideoID: videoID, RawText: text, Strategy: "cache"}, nil
		}
	}

	text, strategy, ok := f.firstCaption(ctx, videoID)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reason := ReasonNoCaptions
		if !f.hasAPIKey {
			reason = ReasonKeyMissing
		}
		f.log.Warn("transcript unavailable", "video_id", videoID, "reason", reason)
		return nil, &TranscriptUnavailableError{VideoID: videoID, Reason: reason}
	}

	if f.cache != nil {
		f.cache.Set(ctx, videoID, text)
	}
	return &FetchResult{VideoID: videoID, RawText: text, Strategy: strategy}, nil
}

// firstCaption runs the strategies in order and stops at the first usable
// result. Strategy errors are logged and never escape.
func (f *TranscriptFetcher) firstCaption(ctx context.Context, videoID string) (string, string, bool) {
	for _, s := range f.strategies {
		if ctx.Err() != nil {
			return "", "", false
		}

		start := time.Now()
		text, err := s.Fetch(ctx, videoID)
		switch {
		case err != nil:
			metrics.TranscriptStrategyOutcomes.WithLabelValues(s.Name(), "error").Inc()
			f.log.Info("caption strategy failed", "strategy", s.Name(), "video_id", videoID, "error", err)
		case utf8.RuneCountInString(text) <= MinTranscriptChars:
			metrics.TranscriptStrategyOutcomes.WithLabelValues(s.Name(), "empty").Inc()
			f.log.Info("caption strategy returned too little text", "strategy", s.Name(), "video_id", videoID, "chars", len(text))
		default:
			metrics.TranscriptStrategyOutcomes.WithLabelValues(s.Name(), "hit").Inc()
			f.log.Info("caption strategy succeeded", "strategy", s.Name(), "video_id", videoID,
				"chars", len(text), "duration", time.Since(start))
			return text, s.Name(), true
		}
	}
	return "", "", false
}

// pageCaptionStrategy reads the caption track list embedded in the public
// watch page and downloads the English track.
type pageCaptionStrategy struct {
	client  *http.Client
	baseURL string
}

func (s *pageCaptionStrategy) Name() string { return "page" }

func (s *pageCaptionStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	page, err := getText(ctx, s.client, s.baseURL+"/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}

	tracks, err := extractCaptionTracks(page)
	if err != nil {
		return "", err
	}

	track, ok := pickEnglishTrack(tracks)
	if !ok {
		return "", errors.New("no English caption track")
	}

	payload, err := getText(ctx, s.client, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	return parseCaptionPayload(payload), nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

var playerResponseRe = regexp.MustCompile(`var ytInitialPlayerResponse\s*=\s*`)

// extractCaptionTracks decodes the player response object that follows
// the ytInitialPlayerResponse assignment. The decoder stops at the end of
// the object, so trailing script is ignored.
func extractCaptionTracks(pageHTML string) ([]captionTrack, error) {
	loc := playerResponseRe.FindStringIndex(pageHTML)
	if loc == nil {
		return nil, errors.New("player response not found in page")
	}

	var pr playerResponse
	if err := json.NewDecoder(strings.NewReader(pageHTML[loc[1]:])).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}

	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no captions available for this video")
	}
	return tracks, nil
}

func pickEnglishTrack(tracks []captionTrack) (captionTrack, bool) {
	for _, t := range tracks {
		if t.BaseURL == "" {
			continue
		}
		if t.LanguageCode == "en" || strings.HasPrefix(t.LanguageCode, "en-") {
			return t, true
		}
	}
	return captionTrack{}, false
}

var (
	captionTextRe = regexp.MustCompile(`(?s)<(?:text|p)\b[^>]*>(.*?)</(?:text|p)>`)
	markupTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// parseCaptionPayload extracts the text of every caption cue from a
// timedtext document (legacy <text> or srv3 <p> cues).
func parseCaptionPayload(payload string) string {
	var parts []string
	for _, m := range captionTextRe.FindAllStringSubmatch(payload, -1) {
		text := html.UnescapeString(m[1])
		text = markupTagRe.ReplaceAllString(text, "")
		// caption bodies are frequently escaped twice
		text = strings.TrimSpace(html.UnescapeString(text))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// videoLookup confirms a video exists through an authenticated API.
type videoLookup interface {
	VideoExists(ctx context.Context, videoID string) (bool, error)
}

type youtubeDataAPI struct {
	svc *youtube.Service
}

func (y *youtubeDataAPI) VideoExists(ctx context.Context, videoID string) (bool, error) {
	resp, err := y.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return len(resp.Items) > 0, nil
}

// dataAPICaptionStrategy confirms the video through the Data API and then
// requests the English timedtext track directly.
type dataAPICaptionStrategy struct {
	lookup  videoLookup
	client  *http.Client
	baseURL string
}

func (s *dataAPICaptionStrategy) Name() string { return "data-api" }

func (s *dataAPICaptionStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	exists, err := s.lookup.VideoExists(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("videos.list failed: %w", err)
	}
	if !exists {
		return "", errors.New("video not found via Data API")
	}

	payload, err := getText(ctx, s.client, s.baseURL+"/api/timedtext?v="+videoID+"&lang=en&fmt=srv3")
	if err != nil {
		return "", fmt.Errorf("failed to fetch timedtext: %w", err)
	}
	if len(payload) <= MinTranscriptChars {
		return "", errors.New("timedtext payload is empty")
	}
	return parseCaptionPayload(payload), nil
}

// libraryCaptionStrategy falls back to the transcript API client, which
// negotiates the caption endpoints on its own.
type libraryCaptionStrategy struct {
	entries func(videoID string) ([]string, error)
}

func newLibraryCaptionStrategy() *libraryCaptionStrategy {
	api := ytapi.NewYouTubeTranscriptApi()
	return &libraryCaptionStrategy{entries: func(videoID string) ([]string, error) {
		transcript, err := api.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
		if err != nil {
			return nil, err
		}
		texts := make([]string, 0, len(transcript.Entries))
		for _, entry := range transcript.Entries {
			texts = append(texts, entry.Text)
		}
		return texts, nil
	}}
}

func (s *libraryCaptionStrategy) Name() string { return "transcript-library" }

func (s *libraryCaptionStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	entries, err := s.entries(videoID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("subtitle track is empty")
	}

	var fullText strings.Builder
	for _, entry := range entries {
		text := strings.TrimSpace(html.UnescapeString(entry))
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}
	return strings.TrimSpace(fullText.String()), nil
}

func getText(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionPayload))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
