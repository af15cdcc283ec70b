package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services/llm"
)

// analysisTestClient returns a client pointed at a server that always
// answers with the given analysis JSON.
func analysisTestClient(t *testing.T, analysisJSON string) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%s}}]}`,
			mustQuote(analysisJSON))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return llm.NewClient(llm.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
}

func mustQuote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func TestAnalyzeOrDefaultMissingKey(t *testing.T) {
	svc := NewAnalysisService(llm.NewClient(llm.Config{}))

	analysis := svc.AnalyzeOrDefault(context.Background(), "I love hiking")
	if !reflect.DeepEqual(analysis, model.DefaultAnalysis()) {
		t.Errorf("analysis = %+v, want exactly DefaultAnalysis()", analysis)
	}
}

func TestAnalyzeOrDefaultUnparseableResponse(t *testing.T) {
	client := analysisTestClient(t, "sorry, I cannot help with that")
	svc := NewAnalysisService(client)

	if _, err := svc.Analyze(context.Background(), "hello"); err == nil {
		t.Fatal("Analyze should fail on an unparseable response")
	}

	analysis := svc.AnalyzeOrDefault(context.Background(), "hello")
	if !reflect.DeepEqual(analysis, model.DefaultAnalysis()) {
		t.Errorf("fallback analysis = %+v, want exactly DefaultAnalysis()", analysis)
	}
}

func TestAnalyzeFiltersWeakEmotions(t *testing.T) {
	client := analysisTestClient(t, `{
		"mood": "excited", "tone": "enthusiastic", "intent": "recommendation",
		"sentiment_score": 0.8, "sentiment_label": "positive",
		"formality": 0.3, "urgency": 0.2, "politeness": 0.6,
		"topic_keywords": ["hiking", "trails"],
		"domain_context": "travel", "detected_language": "en",
		"emotions": [
			{"label": "excitement", "score": 0.8},
			{"label": "joy", "score": 0.45},
			{"label": "neutral", "score": 0.05},
			{"label": "fear", "score": 0.1}
		],
		"dominant_emotion": "neutral",
		"overall_emotional_intensity": 0.1
	}`)
	svc := NewAnalysisService(client)

	analysis, err := svc.Analyze(context.Background(), "Any trail recommendations? I can't wait!")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(analysis.Emotions) != 2 {
		t.Fatalf("emotions = %+v, want the two entries above 0.1", analysis.Emotions)
	}
	for _, e := range analysis.Emotions {
		if e.Score <= 0.1 {
			t.Errorf("emotion %q with score %v should have been filtered", e.Label, e.Score)
		}
	}

	// The model's own dominant_emotion claim is ignored in favor of the
	// strongest surviving entry
	if analysis.DominantEmotion != "excitement" {
		t.Errorf("dominant_emotion = %q, want excitement", analysis.DominantEmotion)
	}
	if analysis.OverallEmotionalIntensity != 0.8 {
		t.Errorf("overall_emotional_intensity = %v, want 0.8", analysis.OverallEmotionalIntensity)
	}
}

func TestAnalyzeClampsSentimentLabel(t *testing.T) {
	client := analysisTestClient(t, `{
		"intent": "question",
		"sentiment_score": 3.5, "sentiment_label": "ecstatic",
		"emotions": []
	}`)
	svc := NewAnalysisService(client)

	analysis, err := svc.Analyze(context.Background(), "what time is it?")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.SentimentLabel != "neutral" {
		t.Errorf("sentiment_label = %q, want neutral for an unknown label", analysis.SentimentLabel)
	}
	if analysis.SentimentScore != 1 {
		t.Errorf("sentiment_score = %v, want clamped to 1", analysis.SentimentScore)
	}
	if analysis.DominantEmotion != "neutral" {
		t.Errorf("dominant_emotion = %q, want neutral when no emotions survive", analysis.DominantEmotion)
	}
}

func TestAnalyzeClearsGeospatialForNonLocationIntent(t *testing.T) {
	client := analysisTestClient(t, `{
		"intent": "smalltalk",
		"sentiment_label": "neutral",
		"emotions": [{"label": "neutral", "score": 0.4}],
		"location_query": "coffee shops", "origin": "home",
		"destination": "office", "place_type": "cafe"
	}`)
	svc := NewAnalysisService(client)

	analysis, err := svc.Analyze(context.Background(), "nice weather today")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.LocationQuery != nil || analysis.Origin != nil ||
		analysis.Destination != nil || analysis.PlaceType != nil {
		t.Errorf("geospatial fields should be nil for intent %q", analysis.Intent)
	}
}

func TestAnalyzeKeepsGeospatialForLocationIntent(t *testing.T) {
	client := analysisTestClient(t, `{
		"intent": "nearby_search",
		"sentiment_label": "neutral",
		"emotions": [],
		"location_query": "coffee shops near me", "place_type": "cafe"
	}`)
	svc := NewAnalysisService(client)

	analysis, err := svc.Analyze(context.Background(), "coffee shops near me?")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.LocationQuery == nil || *analysis.LocationQuery != "coffee shops near me" {
		t.Errorf("location_query = %v, want kept", analysis.LocationQuery)
	}
	if analysis.PlaceType == nil || *analysis.PlaceType != "cafe" {
		t.Errorf("place_type = %v, want kept", analysis.PlaceType)
	}
}

func TestAnalyzeHandlesMarkdownFencedJSON(t *testing.T) {
	client := analysisTestClient(t, "```json\n{\"intent\": \"question\", \"sentiment_label\": \"neutral\", \"emotions\": []}\n```")
	svc := NewAnalysisService(client)

	analysis, err := svc.Analyze(context.Background(), "what's new?")
	if err != nil {
		t.Fatalf("Analyze failed on fenced JSON: %v", err)
	}
	if analysis.Intent != "question" {
		t.Errorf("intent = %q, want question", analysis.Intent)
	}
}

func TestAnalyzeRejectsEmptyMessage(t *testing.T) {
	svc := NewAnalysisService(llm.NewClient(llm.Config{APIKey: "k"}))
	if _, err := svc.Analyze(context.Background(), "   "); err == nil {
		t.Fatal("Analyze should reject an empty message")
	}
}
