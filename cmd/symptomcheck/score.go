package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"mediassist/internal/diagnosis"
	"mediassist/internal/formatter"
)

type scoreOptions struct {
	output      string
	catalogPath string
	server      string
	uf          string
	cases       int
	timeout     time.Duration
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score SYMPTOM...",
		Short: "Score symptoms against the condition catalog",
		Long: `Rank the conditions that match the given symptoms.

Examples:
  # Score locally with the built-in catalog
  symptomcheck score febre tosse

  # Machine-readable output
  symptomcheck score "dificuldade respiratória" febre -o json

  # Simulate a region with many recent cases
  symptomcheck score febre tosse --cases 5000

  # Ask a running server instead
  symptomcheck score febre --server http://localhost:8080 --uf SP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "Path to a condition catalog YAML file")
	cmd.Flags().StringVar(&opts.server, "server", "", "Base URL of a diagnosis server")
	cmd.Flags().StringVar(&opts.uf, "uf", "", "Patient state (UF), used by the server for regional incidence")
	cmd.Flags().IntVar(&opts.cases, "cases", 0, "Recent regional case count applied to a local score")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 20*time.Second, "Timeout for remote scoring")

	return cmd
}

func runScore(cmd *cobra.Command, opts *scoreOptions, args []string) error {
	if !formatter.ValidFormat(opts.output) {
		return fmt.Errorf("unknown output format %q (want one of %s)", opts.output, strings.Join(formatter.Formats, ", "))
	}

	symptoms := make([]string, len(args))
	for i, a := range args {
		symptoms[i] = norm.NFC.String(strings.TrimSpace(a))
	}

	catalog, err := loadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}

	var out formatter.Output
	if opts.server != "" {
		out, err = scoreRemote(cmd.Context(), opts, symptoms)
		if err != nil {
			return err
		}
	} else {
		scorer := diagnosis.NewScorer(catalog)
		result := scorer.Score(symptoms)
		if opts.cases > 0 {
			result = scorer.ApplyRegionalIncidence(result, opts.cases)
		}
		out = formatter.Output{Result: result, Source: diagnosis.SourceCatalog}
	}
	// Matching uses the cleaned labels; the echo keeps what was typed.
	out.Result.AnalyzedSymptoms = append([]string{}, args...)

	return formatter.DisplayResults(cmd.OutOrStdout(), out, opts.output, catalog.IsWarning)
}

func loadCatalog(path string) (*diagnosis.Catalog, error) {
	if path == "" {
		return diagnosis.DefaultCatalog(), nil
	}
	return diagnosis.LoadCatalog(path)
}

func scoreRemote(ctx context.Context, opts *scoreOptions, symptoms []string) (formatter.Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " Consultando o servidor de diagnóstico..."
	s.Writer = io.Discard
	if opts.output == "human" {
		s.Writer = spinnerWriter
	}
	s.Start()
	defer s.Stop()

	body, err := json.Marshal(map[string]any{"symptoms": symptoms, "uf": opts.uf})
	if err != nil {
		return formatter.Output{}, err
	}

	url := strings.TrimRight(opts.server, "/") + "/api/diagnosis"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return formatter.Output{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return formatter.Output{}, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return formatter.Output{}, fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out formatter.Output
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return formatter.Output{}, fmt.Errorf("decode server response: %w", err)
	}
	out.Result = diagnosis.Normalize(out.Result)
	return out, nil
}
