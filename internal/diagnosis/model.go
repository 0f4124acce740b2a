package diagnosis

// ScoredCondition is one ranked candidate in a diagnosis result.
type ScoredCondition struct {
	Name             string   `json:"name" yaml:"name"`
	Probability      float64  `json:"probability" yaml:"probability"`
	Description      string   `json:"description" yaml:"description"`
	MatchingSymptoms []string `json:"matching_symptoms" yaml:"matching_symptoms"`
}

// Result is the outcome of a single scoring call.
type Result struct {
	PossibleConditions []ScoredCondition `json:"possible_conditions" yaml:"possible_conditions"`
	Recommendations    []string          `json:"recommendations" yaml:"recommendations"`
	AnalyzedSymptoms   []string          `json:"analyzed_symptoms" yaml:"analyzed_symptoms"`
}

// Top returns the highest ranked condition, if any.
func (r Result) Top() (ScoredCondition, bool) {
	if len(r.PossibleConditions) == 0 {
		return ScoredCondition{}, false
	}
	return r.PossibleConditions[0], true
}

// Source identifies which provider produced a result.
type Source string

const (
	SourceCatalog     Source = "catalog"
	SourceInfermedica Source = "infermedica"
)

// Request carries everything a provider may use to produce a result.
// Age and Sex are only consumed by live providers.
type Request struct {
	Symptoms []string
	Age      int
	Sex      string
}
