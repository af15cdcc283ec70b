package model

// MessageAnalysis is the structured classification of a single user message.
// It is computed per request and never persisted; callers attach it to a
// response or copy individual fields into their own records.
type MessageAnalysis struct {
	Mood                       string         `json:"mood"`
	Tone                       string         `json:"tone"`
	Intent                     string         `json:"intent"`
	SentimentScore             float64        `json:"sentiment_score"` // [-1, 1]
	SentimentLabel             string         `json:"sentiment_label"` // positive, negative, neutral, mixed
	Formality                  float64        `json:"formality"`       // [0, 1]
	Urgency                    float64        `json:"urgency"`         // [0, 1]
	Politeness                 float64        `json:"politeness"`      // [0, 1]
	TopicKeywords              []string       `json:"topic_keywords"`
	DomainContext              string         `json:"domain_context"`
	DetectedLanguage           string         `json:"detected_language"`
	Emotions                   []EmotionScore `json:"emotions"`
	DominantEmotion            string         `json:"dominant_emotion"`
	OverallEmotionalIntensity  float64        `json:"overall_emotional_intensity"`

	// Geospatial fields stay nil unless Intent is geospatial
	LocationQuery *string `json:"location_query"`
	Origin        *string `json:"origin"`
	Destination   *string `json:"destination"`
	PlaceType     *string `json:"place_type"`

	// Translation fields, present only for translation intents
	TranslateTo    *string `json:"translate_to,omitempty"`
	TranslatedText *string `json:"translated_text,omitempty"`
}

// EmotionScore is one detected emotion with its confidence
type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Sentiment labels accepted in MessageAnalysis.SentimentLabel. Anything
// else coming back from the model is clamped to "neutral".
var ValidSentimentLabels = map[string]bool{
	"positive": true,
	"negative": true,
	"neutral":  true,
	"mixed":    true,
}

// GeospatialIntents are the intents for which location fields are kept.
// For every other intent the geospatial fields are forced to nil.
var GeospatialIntents = map[string]bool{
	"find_location":  true,
	"get_directions": true,
	"nearby_search":  true,
	"distance_query": true,
}

// DefaultAnalysis returns the fixed neutral classification used whenever
// the provider key is missing or the upstream call or parse fails.
func DefaultAnalysis() *MessageAnalysis {
	return &MessageAnalysis{
		Mood:                      "neutral",
		Tone:                      "neutral",
		Intent:                    "general_conversation",
		SentimentScore:            0,
		SentimentLabel:            "neutral",
		Formality:                 0.5,
		Urgency:                   0,
		Politeness:                0.5,
		TopicKeywords:             []string{},
		DomainContext:             "general",
		DetectedLanguage:          "en",
		Emotions:                  []EmotionScore{},
		DominantEmotion:           "neutral",
		OverallEmotionalIntensity: 0,
	}
}
