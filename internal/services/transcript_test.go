package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartlearning-backend/internal/logger"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?start=10", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"  https://youtu.be/dQw4w9WgXcQ  ", "dQw4w9WgXcQ", false},
		{"https://vimeo.com/123456", "", true},
		{"not a url", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ExtractVideoID(tc.in)
			if tc.wantErr {
				var ref *InvalidReferenceError
				if !errors.As(err, &ref) {
					t.Fatalf("expected InvalidReferenceError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

type stubStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubCache struct {
	data map[string]string
	sets int
}

func (c *stubCache) Get(ctx context.Context, videoID string) (string, bool) {
	text, ok := c.data[videoID]
	return text, ok
}

func (c *stubCache) Set(ctx context.Context, videoID, text string) {
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[videoID] = text
	c.sets++
}

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

var longCaption = strings.Repeat("photosynthesis converts light into chemical energy. ", 5)

func newTestFetcher(hasKey bool, cache TranscriptCache, strategies ...captionStrategy) *TranscriptFetcher {
	return &TranscriptFetcher{strategies: strategies, cache: cache, hasAPIKey: hasKey, log: logger.Nop()}
}

func TestTranscriptFetcher_FirstUsableStrategyWins(t *testing.T) {
	failing := &stubStrategy{name: "page", err: errors.New("blocked")}
	short := &stubStrategy{name: "data-api", text: "too short"}
	good := &stubStrategy{name: "transcript-library", text: longCaption}
	unused := &stubStrategy{name: "extra", text: longCaption}

	f := newTestFetcher(true, nil, failing, short, good, unused)
	res, err := f.Fetch(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != "transcript-library" {
		t.Fatalf("expected transcript-library, got %q", res.Strategy)
	}
	if res.VideoID != "dQw4w9WgXcQ" || res.RawText != longCaption {
		t.Fatalf("unexpected result: %+v", res)
	}
	if unused.calls != 0 {
		t.Fatalf("strategies after the first success must not run")
	}
}

func TestTranscriptFetcher_ExactlyMinimumIsNotEnough(t *testing.T) {
	exact := &stubStrategy{name: "page", text: strings.Repeat("a", MinTranscriptChars)}
	f := newTestFetcher(true, nil, exact)

	_, err := f.Fetch(context.Background(), testVideoURL)
	var unavailable *TranscriptUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected TranscriptUnavailableError, got %v", err)
	}
}

func TestTranscriptFetcher_UnavailableReason(t *testing.T) {
	for _, tc := range []struct {
		hasKey bool
		want   UnavailableReason
	}{
		{false, ReasonKeyMissing},
		{true, ReasonNoCaptions},
	} {
		t.Run(string(tc.want), func(t *testing.T) {
			f := newTestFetcher(tc.hasKey, nil, &stubStrategy{name: "page", err: errors.New("nothing")})
			_, err := f.Fetch(context.Background(), testVideoURL)

			var unavailable *TranscriptUnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("expected TranscriptUnavailableError, got %v", err)
			}
			if unavailable.Reason != tc.want {
				t.Fatalf("reason = %q, want %q", unavailable.Reason, tc.want)
			}
			if unavailable.VideoID != "dQw4w9WgXcQ" {
				t.Fatalf("video id = %q", unavailable.VideoID)
			}
			if tc.want == ReasonKeyMissing && !strings.Contains(unavailable.Error(), "YOUTUBE_API_KEY") {
				t.Fatalf("key_missing message should carry setup guidance: %q", unavailable.Error())
			}
		})
	}
}

func TestTranscriptFetcher_InvalidURLSkipsStrategies(t *testing.T) {
	s := &stubStrategy{name: "page", text: longCaption}
	f := newTestFetcher(true, nil, s)

	_, err := f.Fetch(context.Background(), "https://example.com/video")
	var ref *InvalidReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("expected InvalidReferenceError, got %v", err)
	}
	if s.calls != 0 {
		t.Fatalf("no strategy should run for an invalid reference")
	}
}

func TestTranscriptFetcher_Cache(t *testing.T) {
	s := &stubStrategy{name: "page", text: longCaption}
	cache := &stubCache{}
	f := newTestFetcher(true, cache, s)

	if _, err := f.Fetch(context.Background(), testVideoURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 || cache.data["dQw4w9WgXcQ"] != longCaption {
		t.Fatalf("fetched text should be cached")
	}

	res, err := f.Fetch(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != "cache" {
		t.Fatalf("expected cache hit, got %q", res.Strategy)
	}
	if s.calls != 1 {
		t.Fatalf("strategy should run once, ran %d times", s.calls)
	}
}

func TestTranscriptFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stubStrategy{name: "page", text: longCaption}
	f := newTestFetcher(true, nil, s)
	_, err := f.Fetch(ctx, testVideoURL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPageCaptionStrategy(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "abc123def45" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[`+
			`{"baseUrl":"%[1]s/captions?lang=de","languageCode":"de"},`+
			`{"baseUrl":"%[1]s/captions?lang=en","languageCode":"en-GB"}]}}};var other = {"a":1};</script></html>`, srv.URL)
	})
	mux.HandleFunc("/captions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "en" {
			t.Errorf("wrong track requested: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `<transcript><text start="0">Hello &amp;amp; welcome</text><text start="1">to the &lt;b&gt;course&lt;/b&gt;</text><text start="2">  </text></transcript>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := &pageCaptionStrategy{client: srv.Client(), baseURL: srv.URL}
	got, err := s.Fetch(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello & welcome to the course" {
		t.Fatalf("got %q", got)
	}
}

func TestPageCaptionStrategy_NoPlayerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>consent wall</html>")
	}))
	defer srv.Close()

	s := &pageCaptionStrategy{client: srv.Client(), baseURL: srv.URL}
	if _, err := s.Fetch(context.Background(), "abc123def45"); err == nil {
		t.Fatal("expected an error without a player response")
	}
}

func TestParseCaptionPayload_SRV3(t *testing.T) {
	payload := `<timedtext format="3"><body><p t="0" d="1000">First <s>line</s></p><p t="1000">second</p></body></timedtext>`
	if got := parseCaptionPayload(payload); got != "First line second" {
		t.Fatalf("got %q", got)
	}
}

func TestPickEnglishTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "de", LanguageCode: "de"},
		{BaseURL: "", LanguageCode: "en"},
		{BaseURL: "us", LanguageCode: "en-US"},
	}
	track, ok := pickEnglishTrack(tracks)
	if !ok || track.BaseURL != "us" {
		t.Fatalf("expected en-US track, got %+v", track)
	}

	if _, ok := pickEnglishTrack([]captionTrack{{BaseURL: "fr", LanguageCode: "fr"}}); ok {
		t.Fatal("no English track should be found")
	}
}

type stubLookup struct {
	exists bool
	err    error
}

func (l stubLookup) VideoExists(ctx context.Context, videoID string) (bool, error) {
	return l.exists, l.err
}

func TestDataAPICaptionStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/timedtext" || r.URL.Query().Get("v") != "abc123def45" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<timedtext><body><p t="0">`+longCaption+`</p></body></timedtext>`)
	}))
	defer srv.Close()

	s := &dataAPICaptionStrategy{lookup: stubLookup{exists: true}, client: srv.Client(), baseURL: srv.URL}
	got, err := s.Fetch(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != strings.TrimSpace(longCaption) {
		t.Fatalf("got %q", got)
	}

	missing := &dataAPICaptionStrategy{lookup: stubLookup{exists: false}, client: srv.Client(), baseURL: srv.URL}
	if _, err := missing.Fetch(context.Background(), "abc123def45"); err == nil {
		t.Fatal("expected an error for a video the API does not know")
	}
}

func TestLibraryCaptionStrategy(t *testing.T) {
	s := &libraryCaptionStrategy{entries: func(string) ([]string, error) {
		return []string{"Hello &amp; world", "  ", "again"}, nil
	}}
	got, err := s.Fetch(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello & world again" {
		t.Fatalf("got %q", got)
	}

	empty := &libraryCaptionStrategy{entries: func(string) ([]string, error) { return nil, nil }}
	if _, err := empty.Fetch(context.Background(), "abc123def45"); err == nil {
		t.Fatal("expected an error for an empty track")
	}
}
