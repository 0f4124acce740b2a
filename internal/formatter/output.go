package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"mediassist/internal/diagnosis"
)

// Formats accepted by DisplayResults.
var Formats = []string{"human", "json", "yaml"}

// Output is a diagnosis result together with where it came from.
type Output struct {
	diagnosis.Result `yaml:",inline"`
	Source           diagnosis.Source `json:"source,omitempty" yaml:"source,omitempty"`
	Degraded         bool             `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// WarningFunc reports whether a recommendation should be highlighted.
type WarningFunc func(recommendation string) bool

func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// DisplayResults formats and writes the diagnosis output
func DisplayResults(w io.Writer, out Output, format string, isWarning WarningFunc) error {
	switch format {
	case "json":
		return displayJSON(w, out)
	case "yaml":
		return displayYAML(w, out)
	case "human":
		fallthrough
	default:
		displayHuman(w, out, isWarning)
	}
	return nil
}

// DisplaySymptoms writes the symptom catalog.
func DisplaySymptoms(w io.Writer, symptoms []string, format string) error {
	switch format {
	case "json":
		return displayJSON(w, map[string][]string{"symptoms": symptoms})
	case "yaml":
		return displayYAML(w, map[string][]string{"symptoms": symptoms})
	default:
		for _, s := range symptoms {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	return nil
}

func displayJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, v any) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(output))
	return nil
}

func displayHuman(w io.Writer, out Output, isWarning WarningFunc) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Fprintln(w)

	white.Fprintf(w, "🩺 SINTOMAS ANALISADOS: %s\n\n", strings.Join(out.AnalyzedSymptoms, ", "))

	if len(out.PossibleConditions) == 0 {
		yellow.Fprintln(w, "Nenhuma condição identificada.")
		fmt.Fprintln(w)
	} else {
		cyan.Fprintln(w, "📋 CONDIÇÕES POSSÍVEIS:")
		for i, c := range out.PossibleConditions {
			fmt.Fprintf(w, "   %d. %s %s\n", i+1, c.Name, probabilityColor(c.Probability).Sprintf("%.0f%%", c.Probability*100))
			fmt.Fprintf(w, "      %s\n", c.Description)
			if len(c.MatchingSymptoms) > 0 {
				fmt.Fprintf(w, "      Sintomas: %s\n", color.HiBlackString(strings.Join(c.MatchingSymptoms, ", ")))
			}
			fmt.Fprintln(w)
		}
	}

	if len(out.Recommendations) > 0 {
		cyan.Fprintln(w, "💡 RECOMENDAÇÕES:")
		for _, r := range out.Recommendations {
			if isWarning != nil && isWarning(r) {
				red.Fprintf(w, "   ⚠️  %s\n", r)
				continue
			}
			fmt.Fprintf(w, "   • %s\n", r)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	if out.Degraded {
		fmt.Fprintf(w, "%s\n", color.YellowString("Serviço externo indisponível, resultado do catálogo local"))
	}
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Use -o json ou -o yaml para saída estruturada"))
}

func probabilityColor(p float64) *color.Color {
	switch {
	case p >= 0.7:
		return color.New(color.FgRed, color.Bold)
	case p >= 0.4:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
