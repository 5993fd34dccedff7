package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens-backend/internal/clients/gemini"
	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/types"
)

// insightsPromptTemplate pins the model to the exact JSON shape the rest of
// the pipeline consumes. Risk and level values are restricted to the
// three-step scale.
const insightsPromptTemplate = `Analyze the following legal document text and generate a structured JSON object containing a detailed analysis. The JSON object must conform to the following schema:

{
  "summary": "A concise, 2-3 sentence overall summary of the document's purpose.",
  "keyTerms": [
    { "term": "Term Name 1", "risk": "High|Medium|Low" },
    { "term": "Term Name 2", "risk": "High|Medium|Low" }
  ],
  "entities": [
    { "name": "Entity Name", "role": "Role (e.g., Contract Party, Organization)" }
  ],
  "detailedInsights": [
    {
      "category": "Financial Risk",
      "level": "High|Medium|Low",
      "items": ["Point 1 about financial risk.", "Point 2 about financial risk."]
    },
    {
      "category": "Legal Compliance",
      "level": "High|Medium|Low",
      "items": ["Point 1 about legal compliance.", "Point 2 about legal compliance."]
    },
    {
      "category": "Timeline Risk",
      "level": "High|Medium|Low",
      "items": ["Point 1 about timelines.", "Point 2 about timelines."]
    }
  ],
  "contractAnalysisSummary": {
    "strengths": ["List of strengths."],
    "concerns": ["List of concerns."]
  },
  "suggestedQuestions": [
    "A relevant question about the document.",
    "Another relevant question."
  ]
}

Document Text:
---
%s
---

Provide only the JSON object as a response, without any additional text or markdown formatting.`

// InsightService produces the structured analysis object for a document.
type InsightService interface {
	Generate(ctx context.Context, text string) (*types.Insights, error)
}

type insightService struct {
	log *logger.Logger
	ai  gemini.Client
}

func NewInsightService(log *logger.Logger, ai gemini.Client) InsightService {
	return &insightService{log: log.With("service", "InsightService"), ai: ai}
}

func (s *insightService) Generate(ctx context.Context, text string) (*types.Insights, error) {
	raw, err := s.ai.GenerateText(ctx, fmt.Sprintf(insightsPromptTemplate, text))
	if err != nil {
		return nil, err
	}

	cleaned := stripCodeFences(raw)

	var insights types.Insights
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		s.log.Warn("Insight response was not valid JSON", "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrMalformedInsights, err)
	}
	return &insights, nil
}

// stripCodeFences removes markdown fence markers the model sometimes wraps
// around JSON despite being told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
