package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clauselens/clauselens-backend/internal/clients/gemini"
	"github.com/clauselens/clauselens-backend/internal/clients/vertexrag"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

type fakeCorpus struct {
	contexts   []vertexrag.RetrievedContext
	err        error
	lastQuery  string
	lastFilter map[string]string
	lastTopK   int
}

func (f *fakeCorpus) UploadFile(_ context.Context, _, displayName string, _ map[string]string) (string, error) {
	return "ragFiles/" + displayName, nil
}

func (f *fakeCorpus) RetrieveContexts(_ context.Context, query string, metadata map[string]string, topK int, _ float64) ([]vertexrag.RetrievedContext, error) {
	f.lastQuery = query
	f.lastFilter = metadata
	f.lastTopK = topK
	return f.contexts, f.err
}

func TestQueryAnswerFromContexts(t *testing.T) {
	t.Parallel()
	corpus := &fakeCorpus{contexts: []vertexrag.RetrievedContext{
		{Text: "Rent is due on the first of each month.", Score: 0.12},
		{Text: "Late payments incur a 5% fee.", Score: 0.31},
	}}
	ai := &fakeGemini{response: "Rent is due on the first of each month."}
	svc := NewQueryService(logger.NewNop(), corpus, ai)

	answer, err := svc.Answer(context.Background(), "u1", "d1", "When is rent due?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Rent is due on the first of each month." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	if corpus.lastFilter["user_id"] != "u1" || corpus.lastFilter["doc_id"] != "d1" {
		t.Fatalf("retrieval not scoped to owner: %+v", corpus.lastFilter)
	}
	if corpus.lastTopK != queryTopK {
		t.Fatalf("unexpected topK: %d", corpus.lastTopK)
	}
	if !strings.Contains(ai.lastPrompt, "[1] Rent is due on the first of each month.") ||
		!strings.Contains(ai.lastPrompt, "[2] Late payments incur a 5% fee.") {
		t.Fatalf("retrieved excerpts missing from prompt:\n%s", ai.lastPrompt)
	}
	if !strings.Contains(ai.lastPrompt, "Question: When is rent due?") {
		t.Fatalf("question missing from prompt:\n%s", ai.lastPrompt)
	}
}

func TestQueryOmitsDocFilterWhenUnset(t *testing.T) {
	t.Parallel()
	corpus := &fakeCorpus{contexts: []vertexrag.RetrievedContext{{Text: "some clause"}}}
	svc := NewQueryService(logger.NewNop(), corpus, &fakeGemini{response: "ok"})

	if _, err := svc.Answer(context.Background(), "u1", "", "anything?", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := corpus.lastFilter["doc_id"]; ok {
		t.Fatalf("doc_id filter should be absent: %+v", corpus.lastFilter)
	}
}

func TestQueryFallbackOnNoContexts(t *testing.T) {
	t.Parallel()
	ai := &fakeGemini{response: "should never be called"}
	svc := NewQueryService(logger.NewNop(), &fakeCorpus{}, ai)

	answer, err := svc.Answer(context.Background(), "u1", "d1", "When is rent due?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
	if ai.lastPrompt != "" {
		t.Fatal("generation should be skipped when retrieval is empty")
	}
}

func TestQueryFallbackOnBlankGeneration(t *testing.T) {
	t.Parallel()
	corpus := &fakeCorpus{contexts: []vertexrag.RetrievedContext{{Text: "clause"}}}
	svc := NewQueryService(logger.NewNop(), corpus, &fakeGemini{response: "   \n"})

	answer, err := svc.Answer(context.Background(), "u1", "d1", "question?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
}

// Composes the real inference client so the empty-completion contract is
// exercised end to end, not just against a fake.
func TestQueryFallbackWithRealInferenceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_MAX_RETRIES", "0")

	ai, err := gemini.NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("create gemini client: %v", err)
	}

	corpus := &fakeCorpus{contexts: []vertexrag.RetrievedContext{{Text: "clause"}}}
	svc := NewQueryService(logger.NewNop(), corpus, ai)

	answer, err := svc.Answer(context.Background(), "u1", "d1", "When is rent due?", nil)
	if err != nil {
		t.Fatalf("empty completion must not surface as an error: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
}

func TestQueryRetrievalError(t *testing.T) {
	t.Parallel()
	corpus := &fakeCorpus{err: errors.New("corpus unavailable")}
	svc := NewQueryService(logger.NewNop(), corpus, &fakeGemini{})

	if _, err := svc.Answer(context.Background(), "u1", "d1", "question?", nil); err == nil {
		t.Fatal("expected retrieval error to surface")
	}
}
