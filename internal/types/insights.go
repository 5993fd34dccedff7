package types

// RiskLevel is the three-step scale the analysis model is constrained to.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// TermLocation is one occurrence of a key term on a rendered PDF page.
// Coords is the [x0, y0, x1, y1] bounding box in page units.
type TermLocation struct {
	Page   int        `json:"page"`
	Coords [4]float64 `json:"coords"`
}

type KeyTerm struct {
	Term      string         `json:"term"`
	Risk      RiskLevel      `json:"risk"`
	Locations []TermLocation `json:"locations,omitempty"`
}

type Entity struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type InsightGroup struct {
	Category string    `json:"category"`
	Level    RiskLevel `json:"level"`
	Items    []string  `json:"items"`
}

type ContractAnalysisSummary struct {
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// Insights is the structured analysis attached to a Document once processing
// completes. Fields the model omits stay zero-valued; consumers must tolerate
// that rather than assume a fully populated object.
type Insights struct {
	Summary                 string                  `json:"summary"`
	KeyTerms                []KeyTerm               `json:"keyTerms"`
	Entities                []Entity                `json:"entities"`
	DetailedInsights        []InsightGroup          `json:"detailedInsights"`
	ContractAnalysisSummary ContractAnalysisSummary `json:"contractAnalysisSummary"`
	SuggestedQuestions      []string                `json:"suggestedQuestions"`
}
