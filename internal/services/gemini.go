package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
	"smartlearning-backend/internal/models"
)

// GeminiGenerator is the live ContentGenerator.
type GeminiGenerator struct {
	client        *genai.Client
	summaryModel  *genai.GenerativeModel
	keyPointModel *genai.GenerativeModel
	quizModel     *genai.GenerativeModel
	rateChan      chan struct{} // concurrency slots
	log           *logger.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, concurrentReqs int, log *logger.Logger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	newModel := func(system string, temperature float32, maxTokens int32, jsonOut bool) *genai.GenerativeModel {
		m := client.GenerativeModel(modelName)
		m.SetTemperature(temperature)
		m.SetTopP(0.95)
		m.SetMaxOutputTokens(maxTokens)
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		if jsonOut {
			m.ResponseMIMEType = "application/json"
		}
		return m
	}

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiGenerator{
		client: client,
		summaryModel: newModel(
			"You are an expert educational content summarizer. Create clear, comprehensive, and exam-oriented summaries.",
			0.3, 1000, false),
		keyPointModel: newModel(
			"You are an expert at extracting key educational points. Return only valid JSON.",
			0.3, 800, true),
		quizModel: newModel(
			"You are an expert quiz creator. Generate educational, accurate questions based strictly on provided content. Return only valid JSON.",
			0.4, 2500, true),
		rateChan: rateChan,
		log:      log.With("component", "gemini"),
	}, nil
}

func (g *GeminiGenerator) Close() {
	g.client.Close()
}

// acquireRate blocks until a rate slot is available
func (g *GeminiGenerator) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (g *GeminiGenerator) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *GeminiGenerator) call(ctx context.Context, kind string, model *genai.GenerativeModel, prompt string) (string, error) {
	if err := g.acquireRate(ctx); err != nil {
		return "", err
	}
	defer g.releaseRate()

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		metrics.GenerationDuration.WithLabelValues(kind, "error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	metrics.GenerationDuration.WithLabelValues(kind, "ok").Observe(time.Since(start).Seconds())

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			g.log.Warn("Gemini candidate did not stop normally", "kind", kind, "candidate", i, "finish_reason", cand.FinishReason.String())
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned empty text")
	}
	return text, nil
}

func (g *GeminiGenerator) GenerateSummary(ctx context.Context, transcript string) (string, error) {
	text, err := g.call(ctx, "summary", g.summaryModel, buildSummaryPrompt(transcript))
	if err != nil {
		return "", &GenerationError{Kind: "summary", Err: err}
	}
	return text, nil
}

func (g *GeminiGenerator) GenerateKeyPoints(ctx context.Context, transcript string) ([]models.KeyPoint, error) {
	text, err := g.call(ctx, "key_points", g.keyPointModel, buildKeyPointsPrompt(transcript))
	if err != nil {
		return nil, &GenerationError{Kind: "key points", Err: err}
	}

	points := parseKeyPoints(text)
	if len(points) == 0 {
		return nil, &GenerationError{Kind: "key points", Err: fmt.Errorf("no key points in response")}
	}
	if len(points) < 5 {
		g.log.Warn("Gemini returned fewer key points than requested", "count", len(points))
	}
	return points, nil
}

func (g *GeminiGenerator) GenerateQuiz(ctx context.Context, transcript string) ([]models.QuizQuestion, error) {
	text, err := g.call(ctx, "quiz", g.quizModel, buildQuizPrompt(transcript))
	if err != nil {
		return nil, &GenerationError{Kind: "quiz", Err: err}
	}

	questions, err := parseQuizJSON(text)
	if err != nil {
		return nil, err
	}
	return ValidateQuizQuestions(questions)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildSummaryPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an expert educational content analyst. Analyze the following video transcript and create a comprehensive, well-structured summary.\n\n")
	b.WriteString("Instructions:\n")
	b.WriteString("- Create a clear, concise summary (200-300 words)\n")
	b.WriteString("- Organize into logical paragraphs\n")
	b.WriteString("- Focus on main concepts and key takeaways\n")
	b.WriteString("- Use professional, academic language\n")
	b.WriteString("- Make it exam-ready and study-friendly\n")
	b.WriteString("- Return plain text only, no markdown headings\n")
	b.WriteString("\n---TRANSCRIPT---\n")
	b.WriteString(truncateForPrompt(transcript))
	b.WriteString("\n---END---\n")
	return b.String()
}

func buildKeyPointsPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Analyze this educational video transcript and extract the most important learning points.\n\n")
	b.WriteString("Instructions:\n")
	b.WriteString("- Extract 5-8 key learning points\n")
	b.WriteString("- Each point should be clear and actionable\n")
	b.WriteString("- Focus on concepts, definitions, and important facts\n")
	b.WriteString("- Make them exam-oriented and memorable\n")
	b.WriteString(`- Return ONLY a JSON array: [{"point": "...", "timestamp": "general"}]` + "\n")
	b.WriteString("\n---TRANSCRIPT---\n")
	b.WriteString(truncateForPrompt(transcript))
	b.WriteString("\n---END---\n")
	return b.String()
}

func buildQuizPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Create exactly 10 multiple-choice quiz questions based STRICTLY on the content from this video transcript.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("- Create EXACTLY 10 questions\n")
	b.WriteString("- Each question must have exactly 4 options\n")
	b.WriteString("- Questions must be based ONLY on content from the transcript\n")
	b.WriteString("- Include a mix of difficulty levels (3 easy, 5 medium, 2 hard)\n")
	b.WriteString("- Provide the correct answer index (0-3) and a brief explanation\n")
	b.WriteString(`
Return ONLY valid JSON in this shape:
{"questions": [{"question": "string", "options": ["A", "B", "C", "D"], "correctAnswer": 0, "explanation": "string", "difficulty": "easy"|"medium"|"hard"}]}
`)
	b.WriteString("\n---TRANSCRIPT---\n")
	b.WriteString(truncateForPrompt(transcript))
	b.WriteString("\n---END---\n")
	return b.String()
}
