package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"smartlearning-backend/internal/models"
)

// MockGenerator derives study material from the transcript itself without
// calling an external model. Output is deterministic for a given input.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

const (
	minSummaryWords = 200
	maxSummaryWords = 300
	minKeyPoints    = 5
	maxOptionChars  = 100
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	nonLetterRe     = regexp.MustCompile(`[^a-z]`)
)

// studyNotes pad the summary to its minimum length.
var studyNotes = []string{
	"The material introduces its subject step by step, so earlier ideas prepare the ground for later ones.",
	"Definitions are given before they are applied, which makes it easier to follow the reasoning.",
	"Several explanations connect abstract principles to concrete situations a learner is likely to meet.",
	"Reviewing the recurring terms is a reliable way to check understanding before moving on.",
	"The examples illustrate how the main ideas behave in practice and where their limits are.",
	"Learners should pay attention to how individual concepts depend on one another.",
	"Revisiting the opening and closing remarks helps to see the overall structure of the argument.",
	"Writing short answers in your own words is a good way to prepare for questions on this content.",
	"Comparing the main ideas with related topics can reveal both similarities and important differences.",
	"The key points listed alongside this summary are a compact checklist for revision.",
	"Testing yourself with the accompanying quiz shows which parts of the material need another look.",
	"Spaced review of these notes over several days tends to improve long term retention.",
}

var genericKeyPoints = []string{
	"Understanding the fundamental concepts and definitions",
	"Key principles and how they apply in practice",
	"Real-world applications and use cases",
	"Important terminology and technical vocabulary",
	"Best practices and recommendations",
	"Common challenges and how to overcome them",
	"Future trends and developments in the field",
}

type transcriptFeatures struct {
	sentences []string
	terms     []string
	wordCount int
}

func analyze(transcript string) transcriptFeatures {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(transcript, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 20 {
			sentences = append(sentences, s)
		}
	}

	words := strings.Fields(strings.ToLower(transcript))
	freq := make(map[string]int)
	for _, w := range words {
		cleaned := nonLetterRe.ReplaceAllString(w, "")
		if len(cleaned) > 5 {
			freq[cleaned]++
		}
	}

	var terms []string
	for w, n := range freq {
		if n >= 2 {
			terms = append(terms, w)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		a, b := terms[i], terms[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	if len(terms) > 10 {
		terms = terms[:10]
	}

	return transcriptFeatures{sentences: sentences, terms: terms, wordCount: len(words)}
}

func (m *MockGenerator) GenerateSummary(ctx context.Context, transcript string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f := analyze(transcript)

	parts := []string{
		fmt.Sprintf("This educational content presents %d words of material on its subject, exploring fundamental principles together with practical applications.", f.wordCount),
	}
	if len(f.terms) > 0 {
		n := min(len(f.terms), 5)
		parts = append(parts, fmt.Sprintf("The discussion keeps returning to %s, which together form the core vocabulary of the topic.", joinList(f.terms[:n])))
	}
	for _, s := range pickSentences(f.sentences, 3) {
		parts = append(parts, "It explains that "+lowerFirst(truncateWords(s, 40))+".")
	}

	words := countWords(parts)
	for i := 0; words < minSummaryWords; i++ {
		note := studyNotes[i%len(studyNotes)]
		parts = append(parts, note)
		words += len(strings.Fields(note))
	}

	summary := strings.Join(parts, " ")
	if len(strings.Fields(summary)) > maxSummaryWords {
		summary = strings.TrimRight(truncateWords(summary, maxSummaryWords), ".,!?") + "."
	}
	return summary, nil
}

func (m *MockGenerator) GenerateKeyPoints(ctx context.Context, transcript string) ([]models.KeyPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := analyze(transcript)

	var points []models.KeyPoint
	add := func(p string) {
		if len(points) < maxKeyPoints {
			points = append(points, models.KeyPoint{Point: p, Timestamp: generalTimestamp})
		}
	}

	for _, t := range f.terms[:min(len(f.terms), 3)] {
		add(fmt.Sprintf("Understand what %s means and where it applies", t))
	}
	for _, s := range pickSentences(f.sentences, 3) {
		add(upperFirst(truncateRunes(s, 150)))
	}
	for i := 0; len(points) < minKeyPoints; i++ {
		add(genericKeyPoints[i%len(genericKeyPoints)])
	}
	return points, nil
}

func (m *MockGenerator) GenerateQuiz(ctx context.Context, transcript string) ([]models.QuizQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := analyze(transcript)

	term := func(i int, fallback string) string {
		if i < len(f.terms) {
			return f.terms[i]
		}
		return fallback
	}
	sentence := func(i int, fallback string) string {
		if i >= 0 && i < len(f.sentences) {
			return truncateRunes(f.sentences[i], maxOptionChars)
		}
		return fallback
	}
	lower := strings.ToLower(transcript)

	applications := "Fundamental concepts and theoretical foundations"
	if strings.Contains(lower, "application") || strings.Contains(lower, "use") {
		applications = "Practical applications and real-world implementations"
	}
	progression := "Comprehensive overview of key topics"
	if len(f.sentences) > 5 {
		progression = "From fundamental concepts to advanced applications"
	}
	importance := "It provides foundational knowledge in the field"
	if strings.Contains(lower, "important") || strings.Contains(lower, "essential") {
		importance = "It is essential for modern understanding and application"
	}
	depth := "Concise overview of key concepts"
	if f.wordCount > 200 {
		depth = "Comprehensive coverage with detailed explanations"
	}
	t1, t2, t3 := term(0, "concepts"), term(1, "systems"), term(2, "processes")

	templates := []struct {
		question, correct, explanation string
		distractors                    [3]string
	}{
		{"What is the primary focus of this educational content?",
			upperFirst(sentence(0, "The subject matter introduced at the start")),
			"The opening statement establishes the main topic and scope of the content.",
			[3]string{"Historical events and chronological developments", "Mathematical calculations and formulas", "Literary analysis and creative writing"}},
		{"Which term appears most frequently and represents a core concept?",
			upperFirst(t1),
			fmt.Sprintf("The term %q is central to the material and appears throughout the content.", t1),
			[3]string{"Methodology", "Infrastructure", "Philosophy"}},
		{"According to the content, what is emphasized in the middle section?",
			upperFirst(sentence(len(f.sentences)/2, "Key information that builds on the introduction")),
			"This section provides information that builds upon earlier concepts.",
			[3]string{"Theoretical frameworks without practical application", "Historical context only", "Biographical information"}},
		{"What type of applications or uses are discussed in this content?",
			applications,
			"The content discusses both theoretical understanding and practical implementation.",
			[3]string{"Purely theoretical models", "Historical documentation", "Personal opinions and anecdotes"}},
		{"What secondary concept is explored in relation to the main topic?",
			upperFirst(t2) + " and its role in the subject",
			fmt.Sprintf("Understanding %s is essential to grasping the complete picture of the subject.", t2),
			[3]string{"Unrelated side topics", "Marketing strategies", "Financial considerations only"}},
		{"How does the content structure the learning progression?",
			progression,
			"The content builds understanding progressively from basics to more complex ideas.",
			[3]string{"Random unconnected facts", "Only advanced concepts for experts", "Historical timeline exclusively"}},
		{"What relationship is highlighted between different concepts?",
			fmt.Sprintf("The interconnection between %s and %s", t1, t3),
			"The content demonstrates how its concepts work together and influence each other.",
			[3]string{"No relationships are established", "Contradictory viewpoints only", "Independent unrelated topics"}},
		{"What conclusion or key takeaway does the content emphasize?",
			upperFirst(sentence(len(f.sentences)-1, "Understanding the topic as a whole")),
			"This represents the culmination of ideas presented throughout the content.",
			[3]string{"No conclusions are presented", "Contradictory results", "Incomplete analysis"}},
		{"Why is understanding this topic considered important?",
			importance,
			"The content establishes the significance and real-world relevance of the topic.",
			[3]string{"It is only useful for historians", "It has no practical relevance", "It is purely for academic discussion"}},
		{"What level of depth does this content provide?",
			depth,
			fmt.Sprintf("With %d words of content, the material covers its subject in some depth.", f.wordCount),
			[3]string{"Surface-level introduction only", "Expert-level technical jargon exclusively", "Incomplete and fragmented information"}},
	}

	difficulties := []string{
		models.DifficultyEasy, models.DifficultyEasy, models.DifficultyEasy,
		models.DifficultyMedium, models.DifficultyMedium, models.DifficultyMedium, models.DifficultyMedium, models.DifficultyMedium,
		models.DifficultyHard, models.DifficultyHard,
	}

	questions := make([]models.QuizQuestion, 0, len(templates))
	for i, tpl := range templates {
		correctIdx := i % models.OptionsPerQuestion
		options := make([]string, 0, models.OptionsPerQuestion)
		options = append(options, tpl.distractors[:]...)
		options = append(options[:correctIdx], append([]string{tpl.correct}, options[correctIdx:]...)...)

		questions = append(questions, models.QuizQuestion{
			Question:      tpl.question,
			Options:       options,
			CorrectAnswer: correctIdx,
			Explanation:   tpl.explanation,
			Difficulty:    difficulties[i],
		})
	}
	return ValidateQuizQuestions(questions)
}

// pickSentences returns up to n sentences spread across the transcript.
func pickSentences(sentences []string, n int) []string {
	if len(sentences) <= n {
		return sentences
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sentences[i*(len(sentences)-1)/(n-1)])
	}
	return out
}

func countWords(parts []string) int {
	n := 0
	for _, p := range parts {
		n += len(strings.Fields(p))
	}
	return n
}

func truncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:n], " ")
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
