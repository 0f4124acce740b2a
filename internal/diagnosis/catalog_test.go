package diagnosis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	conds := c.Conditions()
	require.Len(t, conds, 6)
	assert.Equal(t, "Gripe", conds[0].Name)

	covid, ok := c.Condition("COVID-19")
	require.True(t, ok)
	assert.Len(t, covid.Symptoms, 7)
	assert.Contains(t, covid.Symptoms, "dificuldade respiratória")

	drug, ok := c.Treatment("Asma")
	assert.True(t, ok)
	assert.Equal(t, "Salbutamol", drug)

	_, ok = c.Treatment("Desconhecida")
	assert.False(t, ok)
}

func TestCatalog_SymptomsAreUniqueAndCollated(t *testing.T) {
	c := DefaultCatalog()
	symptoms := c.Symptoms()

	seen := map[string]bool{}
	for _, s := range symptoms {
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}
	for _, cond := range c.Conditions() {
		for _, s := range cond.Symptoms {
			assert.True(t, seen[s], "missing %q", s)
		}
	}

	// pt-BR collation sorts accented letters with their base letter.
	assert.Equal(t, "aperto no peito", symptoms[0])
	assert.Equal(t, "azia", symptoms[1])
	assert.Equal(t, "vômito", symptoms[len(symptoms)-1])
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c := DefaultCatalog()

	c.Conditions()[0].Symptoms[0] = "mutated"
	c.Symptoms()[0] = "mutated"
	cond, _ := c.Condition("Gripe")
	cond.Symptoms[0] = "mutated"

	gripe, _ := c.Condition("Gripe")
	assert.Equal(t, "febre", gripe.Symptoms[0])
	assert.NotEqual(t, "mutated", c.Symptoms()[0])
}

func TestCatalog_IsWarning(t *testing.T) {
	c := DefaultCatalog()

	assert.True(t, c.IsWarning("Procure um médico o mais breve possível"))
	assert.False(t, c.IsWarning("Descanse o suficiente"))
}

func TestNewCatalog_Validation(t *testing.T) {
	valid := func() CatalogConfig {
		return CatalogConfig{
			Conditions: []Condition{{Name: "A", BaseProbability: 0.5, Symptoms: []string{"x"}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*CatalogConfig)
		errMsg string
	}{
		{"no conditions", func(c *CatalogConfig) { c.Conditions = nil }, "no conditions"},
		{"empty name", func(c *CatalogConfig) { c.Conditions[0].Name = " " }, "has no name"},
		{"duplicate name", func(c *CatalogConfig) { c.Conditions = append(c.Conditions, c.Conditions[0]) }, "duplicate condition"},
		{"zero probability", func(c *CatalogConfig) { c.Conditions[0].BaseProbability = 0 }, "outside (0,1]"},
		{"probability above one", func(c *CatalogConfig) { c.Conditions[0].BaseProbability = 1.2 }, "outside (0,1]"},
		{"no symptoms", func(c *CatalogConfig) { c.Conditions[0].Symptoms = nil }, "has no symptoms"},
		{"repeated symptom", func(c *CatalogConfig) { c.Conditions[0].Symptoms = []string{"x", "x"} }, "twice"},
		{"override unknown condition", func(c *CatalogConfig) {
			c.Overrides = []Override{{Condition: "B", Trigger: "x", Multiplier: 2}}
		}, "unknown condition"},
		{"override zero multiplier", func(c *CatalogConfig) {
			c.Overrides = []Override{{Condition: "A", Trigger: "x"}}
		}, "multiplier must be positive"},
		{"recommendation without text", func(c *CatalogConfig) {
			c.Recommendations = []RecommendationRule{{Always: true}}
		}, "without text"},
		{"fallback probability too high", func(c *CatalogConfig) { c.Fallback.Probability = 0.99 }, "fallback probability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			_, err := NewCatalog(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := NewCatalog(valid())
	assert.NoError(t, err)
}

func TestNewCatalog_NormalizesLabels(t *testing.T) {
	decomposed := "vo\u0302mito"
	c, err := NewCatalog(CatalogConfig{
		Conditions: []Condition{{Name: "Gastrite", BaseProbability: 0.5, Symptoms: []string{decomposed}}},
	})
	require.NoError(t, err)

	r := NewScorer(c).Score([]string{"vômito"})
	require.Len(t, r.PossibleConditions, 1)
	assert.Equal(t, "Gastrite", r.PossibleConditions[0].Name)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := []byte(`
conditions:
  - name: Dengue
    description: Arbovirose transmitida pelo Aedes aegypti.
    base_probability: 0.8
    symptoms: [febre, dor atrás dos olhos, manchas vermelhas]
overrides:
  - condition: Dengue
    trigger: manchas vermelhas
    multiplier: 1.2
recommendations:
  - text: Beba muita água
    always: true
fallback:
  name: Indefinida
  probability: 0.1
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	r := NewScorer(c).Score([]string{"febre", "manchas vermelhas"})
	require.Len(t, r.PossibleConditions, 1)
	// 0.8 * 2/3 * 1.2 = 0.64
	assert.InDelta(t, 0.64, r.PossibleConditions[0].Probability, 1e-9)
	assert.Equal(t, []string{"Beba muita água"}, r.Recommendations)

	r = NewScorer(c).Score([]string{"tosse"})
	assert.Equal(t, "Indefinida", r.PossibleConditions[0].Name)
	assert.Equal(t, 0.1, r.PossibleConditions[0].Probability)
}

func TestParseCatalog_DefaultFallback(t *testing.T) {
	c, err := ParseCatalog([]byte(`
conditions:
  - name: Dengue
    base_probability: 0.8
    symptoms: [febre]
`))
	require.NoError(t, err)

	r := NewScorer(c).Score([]string{"zzz"})
	require.Len(t, r.PossibleConditions, 1)
	fb := r.PossibleConditions[0]
	assert.Equal(t, DefaultFallbackName, fb.Name)
	assert.Equal(t, 0.2, fb.Probability)
	assert.Equal(t, DefaultFallbackDescription, fb.Description)
	assert.Equal(t, []string{"zzz"}, fb.MatchingSymptoms)
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("conditions: [unterminated"))
	assert.Error(t, err)
}
