package diagnosis

import (
	"fmt"
	"math"
	"sort"
)

// MaxProbability caps every reported probability.
const MaxProbability = 0.95

// Scorer ranks catalog conditions against a set of reported symptoms.
// It holds no mutable state and may be shared between goroutines.
type Scorer struct {
	catalog *Catalog
}

func NewScorer(catalog *Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

func (s *Scorer) Catalog() *Catalog {
	return s.catalog
}

// Score matches symptoms against every catalog condition. Unknown labels
// never match but are still echoed in AnalyzedSymptoms, which preserves the
// input order and duplicates.
func (s *Scorer) Score(symptoms []string) Result {
	input := make(map[string]struct{}, len(symptoms))
	for _, sym := range symptoms {
		input[sym] = struct{}{}
	}

	conditions := make([]ScoredCondition, 0)
	for _, cond := range s.catalog.conditions {
		var matched []string
		for _, sym := range cond.Symptoms {
			if _, ok := input[sym]; ok {
				matched = append(matched, sym)
			}
		}
		if len(matched) == 0 {
			continue
		}

		raw := cond.BaseProbability * float64(len(matched)) / float64(len(cond.Symptoms))
		raw *= s.catalog.multiplier(cond.Name, matched)

		conditions = append(conditions, ScoredCondition{
			Name:             cond.Name,
			Probability:      clampProbability(raw),
			Description:      cond.Description,
			MatchingSymptoms: matched,
		})
	}

	if len(conditions) == 0 && len(symptoms) > 0 {
		fb := s.catalog.fallback
		conditions = append(conditions, ScoredCondition{
			Name:             fb.Name,
			Probability:      fb.Probability,
			Description:      fb.Description,
			MatchingSymptoms: append([]string(nil), symptoms...),
		})
	}

	sortByProbability(conditions)

	analyzed := make([]string, len(symptoms))
	copy(analyzed, symptoms)

	return Result{
		PossibleConditions: conditions,
		Recommendations:    s.recommend(input, conditions),
		AnalyzedSymptoms:   analyzed,
	}
}

func (s *Scorer) recommend(input map[string]struct{}, conditions []ScoredCondition) []string {
	recs := make([]string, 0, len(s.catalog.recommendations))
	seen := make(map[string]struct{})
	for _, rule := range s.catalog.recommendations {
		if !rule.applies(input, conditions) {
			continue
		}
		if _, dup := seen[rule.Text]; dup {
			continue
		}
		seen[rule.Text] = struct{}{}
		recs = append(recs, rule.Text)
	}
	return recs
}

func (r RecommendationRule) applies(input map[string]struct{}, conditions []ScoredCondition) bool {
	if r.Always {
		return true
	}
	if r.Symptom != "" {
		if _, ok := input[r.Symptom]; ok {
			return true
		}
	}
	if r.AboveProbability > 0 {
		for _, c := range conditions {
			if c.Probability > r.AboveProbability {
				return true
			}
		}
	}
	return false
}

// ApplyRegionalIncidence raises the catalog's regional condition when the
// patient's region reports more recent cases than the configured threshold
// and a trigger symptom was reported. The returned result is re-sorted.
func (s *Scorer) ApplyRegionalIncidence(result Result, cases int) Result {
	rule := s.catalog.regional
	if rule == nil || cases <= rule.Threshold || !anyReported(result.AnalyzedSymptoms, rule.Triggers) {
		return result
	}

	p := math.Min(rule.Base+float64(cases)*rule.PerCase, rule.Cap)
	p = clampProbability(p)
	desc := fmt.Sprintf(rule.Description, cases)

	out := result
	out.PossibleConditions = make([]ScoredCondition, 0, len(result.PossibleConditions)+1)
	found := false
	for _, c := range result.PossibleConditions {
		if c.Name == rule.Condition {
			found = true
			if p > c.Probability {
				c.Probability = p
				c.Description = desc
			}
		}
		out.PossibleConditions = append(out.PossibleConditions, c)
	}
	if !found {
		out.PossibleConditions = append(out.PossibleConditions, ScoredCondition{
			Name:             rule.Condition,
			Probability:      p,
			Description:      desc,
			MatchingSymptoms: reportedTriggers(result.AnalyzedSymptoms, rule.Triggers),
		})
	}
	sortByProbability(out.PossibleConditions)

	input := make(map[string]struct{}, len(result.AnalyzedSymptoms))
	for _, sym := range result.AnalyzedSymptoms {
		input[sym] = struct{}{}
	}
	out.Recommendations = append([]string(nil), result.Recommendations...)
	for _, rec := range s.recommend(input, out.PossibleConditions) {
		if !contains(out.Recommendations, rec) {
			out.Recommendations = append(out.Recommendations, rec)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyReported(symptoms, triggers []string) bool {
	return len(reportedTriggers(symptoms, triggers)) > 0
}

func reportedTriggers(symptoms, triggers []string) []string {
	reported := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		reported[s] = struct{}{}
	}
	var out []string
	for _, t := range triggers {
		if _, ok := reported[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Normalize enforces the result invariants on output from a live provider:
// probabilities clamped to [0, MaxProbability] with two decimals and
// conditions ordered by descending probability.
func Normalize(result Result) Result {
	out := result
	out.PossibleConditions = make([]ScoredCondition, len(result.PossibleConditions))
	for i, c := range result.PossibleConditions {
		c.Probability = clampProbability(c.Probability)
		out.PossibleConditions[i] = c
	}
	sortByProbability(out.PossibleConditions)
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	if out.AnalyzedSymptoms == nil {
		out.AnalyzedSymptoms = []string{}
	}
	return out
}

func clampProbability(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	p = math.Min(p, MaxProbability)
	return math.Round(p*100) / 100
}

// sortByProbability orders descending; ties keep their catalog order.
func sortByProbability(conditions []ScoredCondition) {
	sort.SliceStable(conditions, func(i, j int) bool {
		return conditions[i].Probability > conditions[j].Probability
	})
}
