// Package sentiment defines the analyzer contract the conversation pipeline
// consumes and a keyword-based default implementation. The analyzer is a
// black box to the engine: it must be side-effect free and its failures are
// reported, never retried here.
package sentiment

import (
	"context"
	"strings"
)

// Mood labels produced by the platform. Arabic-first, matching the client UI.
const (
	MoodNeutral = "حياد"
	MoodAnxious = "قلق"
	MoodSad     = "حزن"
	MoodAngry   = "غضب"
	MoodHappy   = "سعادة"
)

// Result is one analysis outcome: a mood label plus a score in [-1, 1].
type Result struct {
	Mood  string
	Score float64
}

// Analyzer scores a message text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

var keywordBuckets = map[string][]string{
	MoodAnxious: {
		"قلق", "خائف", "خوف", "متوتر", "توتر", "أخشى", "اخشى", "مرتبك", "رهبة", "هلع",
		"anxious", "anxiety", "worried", "nervous", "afraid", "scared", "panic", "stress", "stressed",
	},
	MoodSad: {
		"حزين", "حزن", "فاشل", "يائس", "يأس", "وحيد", "وحدة", "مكتئب", "اكتئاب", "أبكي", "ابكي", "تعيس",
		"sad", "depressed", "hopeless", "lonely", "cry", "crying", "miserable", "failure", "worthless",
	},
	MoodAngry: {
		"غاضب", "غضب", "عصبي", "منزعج", "مستاء", "أكره", "اكره", "ظلم", "محبط",
		"angry", "furious", "mad", "annoyed", "hate", "rage", "frustrated", "unfair",
	},
	MoodHappy: {
		"سعيد", "سعادة", "فرح", "فرحان", "مبسوط", "متفائل", "ممتن", "رائع", "تحسن", "أفضل", "افضل",
		"happy", "great", "grateful", "hopeful", "better", "excited", "wonderful", "thankful",
	},
}

// polarity maps each mood label onto the sign of its sentiment score.
var polarity = map[string]float64{
	MoodAnxious: -1,
	MoodSad:     -1,
	MoodAngry:   -1,
	MoodHappy:   1,
	MoodNeutral: 0,
}

// KeywordAnalyzer scores text by keyword hits per mood bucket. It never
// fails and never calls out of process, which keeps the dev mode and the
// test suite independent of any model backend.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer returns the default analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// Analyze picks the mood bucket with the highest keyword score and maps the
// score into [-1, 1] using the bucket's polarity.
func (a *KeywordAnalyzer) Analyze(_ context.Context, text string) (Result, error) {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Result{Mood: MoodNeutral, Score: 0}, nil
	}

	scores := make(map[string]int)
	for mood, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, strings.ToLower(word)) {
				scores[mood] += 3
			}
		}
	}

	// Exclamation marks intensify whatever mood already leads.
	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		for mood := range scores {
			scores[mood] += exclamations
		}
	}

	bestMood := MoodNeutral
	bestScore := 0
	for mood, score := range scores {
		if score > bestScore {
			bestScore = score
			bestMood = mood
		}
	}

	if bestScore == 0 {
		return Result{Mood: MoodNeutral, Score: 0}, nil
	}

	magnitude := 0.3 + float64(bestScore)*0.05
	if magnitude > 1 {
		magnitude = 1
	}
	return Result{Mood: bestMood, Score: magnitude * polarity[bestMood]}, nil
}
