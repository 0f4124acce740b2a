package diagnosis

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Condition is a static catalog entry.
type Condition struct {
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	BaseProbability float64  `yaml:"base_probability" json:"base_probability"`
	Symptoms        []string `yaml:"symptoms" json:"symptoms"`
}

// Override multiplies a condition's raw probability when Trigger is among
// its matched symptoms.
type Override struct {
	Condition  string  `yaml:"condition"`
	Trigger    string  `yaml:"trigger"`
	Multiplier float64 `yaml:"multiplier"`
}

// RecommendationRule adds Text to a result when any of its conditions hold:
// Always, Symptom present in the input, or some condition scoring strictly
// above AboveProbability.
type RecommendationRule struct {
	Text             string  `yaml:"text"`
	Always           bool    `yaml:"always"`
	Symptom          string  `yaml:"symptom"`
	AboveProbability float64 `yaml:"above_probability"`
}

// Defaults for catalogs that omit the fallback block.
const (
	DefaultFallbackName        = "Condição não especificada"
	DefaultFallbackProbability = 0.2
	DefaultFallbackDescription = "Os sintomas informados não correspondem a nenhuma condição conhecida. Procure avaliação profissional."
)

// Fallback is emitted when a non-empty input matches nothing.
type Fallback struct {
	Name        string  `yaml:"name"`
	Probability float64 `yaml:"probability"`
	Description string  `yaml:"description"`
}

// RegionalRule raises Condition when recent regional cases exceed Threshold
// and any of Triggers was reported. Description is a format string taking
// the case count.
type RegionalRule struct {
	Condition   string   `yaml:"condition"`
	Threshold   int      `yaml:"threshold"`
	Base        float64  `yaml:"base"`
	PerCase     float64  `yaml:"per_case"`
	Cap         float64  `yaml:"cap"`
	Triggers    []string `yaml:"triggers"`
	Description string   `yaml:"description"`
}

// CatalogConfig is the serialized form of a catalog.
type CatalogConfig struct {
	Conditions       []Condition          `yaml:"conditions"`
	Overrides        []Override           `yaml:"overrides"`
	Recommendations  []RecommendationRule `yaml:"recommendations"`
	WarningMarker    string               `yaml:"warning_marker"`
	Fallback         Fallback             `yaml:"fallback"`
	Regional         *RegionalRule        `yaml:"regional"`
	Treatments       map[string]string    `yaml:"treatments"`
	DefaultTreatment string               `yaml:"default_treatment"`
}

// Catalog is an immutable, validated condition table. It is safe for
// concurrent use.
type Catalog struct {
	conditions       []Condition
	index            map[string]int
	overrides        []Override
	recommendations  []RecommendationRule
	warningMarker    string
	fallback         Fallback
	regional         *RegionalRule
	treatments       map[string]string
	defaultTreatment string
	symptoms         []string
}

// DefaultCatalog returns the built-in six-condition catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("diagnosis: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(cfg)
}

// NewCatalog validates cfg and builds a Catalog from a private copy of it.
// Labels are normalized to NFC so that decomposed accents in a catalog file
// still match composed user input.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if len(cfg.Conditions) == 0 {
		return nil, fmt.Errorf("catalog has no conditions")
	}

	c := &Catalog{
		index:            make(map[string]int, len(cfg.Conditions)),
		warningMarker:    norm.NFC.String(cfg.WarningMarker),
		fallback:         cfg.Fallback,
		treatments:       make(map[string]string, len(cfg.Treatments)),
		defaultTreatment: cfg.DefaultTreatment,
	}
	c.fallback.Name = norm.NFC.String(c.fallback.Name)

	seenSymptoms := make(map[string]struct{})
	for i, in := range cfg.Conditions {
		name := norm.NFC.String(strings.TrimSpace(in.Name))
		if name == "" {
			return nil, fmt.Errorf("condition %d has no name", i)
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("duplicate condition %q", name)
		}
		if in.BaseProbability <= 0 || in.BaseProbability > 1 {
			return nil, fmt.Errorf("condition %q: base probability %v outside (0,1]", name, in.BaseProbability)
		}
		if len(in.Symptoms) == 0 {
			return nil, fmt.Errorf("condition %q has no symptoms", name)
		}

		symptoms := make([]string, 0, len(in.Symptoms))
		own := make(map[string]struct{}, len(in.Symptoms))
		for _, s := range in.Symptoms {
			s = norm.NFC.String(s)
			if s == "" {
				return nil, fmt.Errorf("condition %q has an empty symptom", name)
			}
			if _, dup := own[s]; dup {
				return nil, fmt.Errorf("condition %q lists symptom %q twice", name, s)
			}
			own[s] = struct{}{}
			symptoms = append(symptoms, s)
			if _, ok := seenSymptoms[s]; !ok {
				seenSymptoms[s] = struct{}{}
				c.symptoms = append(c.symptoms, s)
			}
		}

		c.index[name] = len(c.conditions)
		c.conditions = append(c.conditions, Condition{
			Name:            name,
			Description:     in.Description,
			BaseProbability: in.BaseProbability,
			Symptoms:        symptoms,
		})
	}

	for _, o := range cfg.Overrides {
		o.Condition = norm.NFC.String(o.Condition)
		o.Trigger = norm.NFC.String(o.Trigger)
		if _, ok := c.index[o.Condition]; !ok {
			return nil, fmt.Errorf("override references unknown condition %q", o.Condition)
		}
		if o.Multiplier <= 0 {
			return nil, fmt.Errorf("override %s/%s: multiplier must be positive", o.Condition, o.Trigger)
		}
		c.overrides = append(c.overrides, o)
	}

	for _, r := range cfg.Recommendations {
		if r.Text == "" {
			return nil, fmt.Errorf("recommendation rule without text")
		}
		r.Symptom = norm.NFC.String(r.Symptom)
		c.recommendations = append(c.recommendations, r)
	}

	if c.fallback.Name == "" {
		c.fallback.Name = DefaultFallbackName
	}
	if c.fallback.Probability == 0 {
		c.fallback.Probability = DefaultFallbackProbability
	}
	if c.fallback.Description == "" {
		c.fallback.Description = DefaultFallbackDescription
	}
	if c.fallback.Probability < 0 || c.fallback.Probability > MaxProbability {
		return nil, fmt.Errorf("fallback probability %v outside [0,%v]", c.fallback.Probability, MaxProbability)
	}

	if cfg.Regional != nil {
		r := *cfg.Regional
		r.Condition = norm.NFC.String(r.Condition)
		r.Triggers = normalizeAll(r.Triggers)
		c.regional = &r
	}

	for cond, drug := range cfg.Treatments {
		c.treatments[norm.NFC.String(cond)] = drug
	}

	collate.New(language.BrazilianPortuguese).SortStrings(c.symptoms)
	return c, nil
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = norm.NFC.String(s)
	}
	return out
}

// Conditions returns a copy of the catalog entries in catalog order.
func (c *Catalog) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	for i, cond := range c.conditions {
		cond.Symptoms = append([]string(nil), cond.Symptoms...)
		out[i] = cond
	}
	return out
}

// Condition looks up an entry by exact name.
func (c *Catalog) Condition(name string) (Condition, bool) {
	i, ok := c.index[name]
	if !ok {
		return Condition{}, false
	}
	cond := c.conditions[i]
	cond.Symptoms = append([]string(nil), cond.Symptoms...)
	return cond, true
}

// Symptoms lists every symptom in the catalog, in pt-BR collation order.
func (c *Catalog) Symptoms() []string {
	return append([]string(nil), c.symptoms...)
}

// Fallback returns the sentinel entry used when nothing matches.
func (c *Catalog) Fallback() Fallback {
	return c.fallback
}

// Treatment returns the common drug associated with a condition.
func (c *Catalog) Treatment(condition string) (string, bool) {
	if drug, ok := c.treatments[condition]; ok {
		return drug, true
	}
	if _, known := c.index[condition]; known && c.defaultTreatment != "" {
		return c.defaultTreatment, true
	}
	return "", false
}

// IsWarning reports whether a recommendation should be rendered as a
// warning rather than as advice.
func (c *Catalog) IsWarning(recommendation string) bool {
	return c.warningMarker != "" && strings.Contains(recommendation, c.warningMarker)
}

func (c *Catalog) multiplier(condition string, matched []string) float64 {
	for _, o := range c.overrides {
		if o.Condition != condition {
			continue
		}
		for _, s := range matched {
			if s == o.Trigger {
				return o.Multiplier
			}
		}
	}
	return 1
}
