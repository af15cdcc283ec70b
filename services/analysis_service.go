package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services/llm"
	"github.com/quirra-app/quirra-api/utils"
)

const analysisTimeout = 7 * time.Second

// analysisEmotions is the closed set the model may choose from. Anything
// outside the list is kept as-is but never invented by the prompt.
var analysisEmotions = []string{
	"joy", "excitement", "gratitude", "love", "pride", "hope", "relief",
	"sadness", "anger", "fear", "anxiety", "frustration", "disappointment",
	"guilt", "shame", "loneliness", "boredom", "confusion", "surprise",
	"curiosity", "neutral",
}

var analysisIntents = []string{
	"general_conversation", "question", "request_action", "recommendation",
	"emotional_support", "venting", "brainstorm", "planning", "translation",
	"find_location", "get_directions", "nearby_search", "distance_query",
	"feedback", "smalltalk",
}

var analysisDomains = []string{
	"general", "work", "health", "relationships", "finance", "education",
	"travel", "food", "entertainment", "technology", "creative",
}

// AnalysisService runs a single-message linguistic and emotional analysis
// against the configured LLM provider. Analysis is best-effort decoration:
// callers that cannot tolerate failure use AnalyzeOrDefault.
type AnalysisService struct {
	client *llm.Client
}

// NewAnalysisService creates the analysis service around an injected client
func NewAnalysisService(client *llm.Client) *AnalysisService {
	return &AnalysisService{client: client}
}

// Analyze classifies one user message. It returns an error when the provider
// is unreachable, the key is missing, or the answer cannot be parsed.
func (s *AnalysisService) Analyze(ctx context.Context, message string) (*model.MessageAnalysis, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("cannot analyze an empty message")
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	raw, err := s.client.JSONCompletion(ctx, analysisSystemPrompt(), message,
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(700),
	)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	var analysis model.MessageAnalysis
	if err := utils.ExtractJSONTo(raw, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	normalizeAnalysis(&analysis)
	return &analysis, nil
}

// AnalyzeOrDefault never fails: any error from Analyze is swallowed and a
// neutral default analysis is returned instead, so message handling is
// never blocked on the provider.
func (s *AnalysisService) AnalyzeOrDefault(ctx context.Context, message string) *model.MessageAnalysis {
	analysis, err := s.Analyze(ctx, message)
	if err != nil {
		return model.DefaultAnalysis()
	}
	return analysis
}

// normalizeAnalysis enforces the output contract regardless of what the
// model actually returned.
func normalizeAnalysis(a *model.MessageAnalysis) {
	// Drop near-zero emotion noise, then rederive the dominant entry from
	// what survived. The model's own dominant_emotion claim may point at a
	// filtered-out entry, so it is never trusted.
	filtered := make([]model.EmotionScore, 0, len(a.Emotions))
	for _, e := range a.Emotions {
		if e.Score > 0.1 {
			filtered = append(filtered, e)
		}
	}
	a.Emotions = filtered

	a.DominantEmotion = ""
	a.OverallEmotionalIntensity = 0
	for _, e := range a.Emotions {
		if e.Score > a.OverallEmotionalIntensity {
			a.OverallEmotionalIntensity = e.Score
			a.DominantEmotion = e.Label
		}
	}
	if a.DominantEmotion == "" {
		a.DominantEmotion = "neutral"
	}

	if !model.ValidSentimentLabels[a.SentimentLabel] {
		a.SentimentLabel = "neutral"
	}
	if a.SentimentScore < -1 {
		a.SentimentScore = -1
	}
	if a.SentimentScore > 1 {
		a.SentimentScore = 1
	}

	// Geospatial fields only make sense for location intents
	if !model.GeospatialIntents[a.Intent] {
		a.LocationQuery = nil
		a.Origin = nil
		a.Destination = nil
		a.PlaceType = nil
	}

	if a.TopicKeywords == nil {
		a.TopicKeywords = []string{}
	}
	if a.Intent == "" {
		a.Intent = "general_conversation"
	}
	if a.DomainContext == "" {
		a.DomainContext = "general"
	}
	if a.DetectedLanguage == "" {
		a.DetectedLanguage = "en"
	}
}

func analysisSystemPrompt() string {
	return fmt.Sprintf(`You are a message analysis engine for a conversational assistant. Analyze the user's message and respond with a JSON object exactly matching this schema:

{
  "mood": "short mood description",
  "tone": "short tone description",
  "intent": "one of: %s",
  "sentiment_score": -1.0 to 1.0,
  "sentiment_label": "positive | negative | neutral | mixed",
  "formality": 0.0 to 1.0,
  "urgency": 0.0 to 1.0,
  "politeness": 0.0 to 1.0,
  "topic_keywords": ["up to 5 keywords"],
  "domain_context": "one of: %s",
  "detected_language": "ISO 639-1 code",
  "emotions": [{"label": "one of: %s", "score": 0.0 to 1.0}],
  "location_query": null,
  "origin": null,
  "destination": null,
  "place_type": null,
  "translate_to": "target language code, only when intent is translation",
  "translated_text": "translation, only when intent is translation"
}

Rules:
- Include only emotions that are actually present. Scores below 0.1 are noise.
- location_query, origin, destination and place_type stay null unless the intent is find_location, get_directions, nearby_search or distance_query.
- sentiment_score must agree with sentiment_label.`,
		strings.Join(analysisIntents, ", "),
		strings.Join(analysisDomains, ", "),
		strings.Join(analysisEmotions, ", "))
}
