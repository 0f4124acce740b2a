package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mediassist/internal/formatter"
)

// spinnerWriter is stderr so progress never mixes with command output.
var spinnerWriter = os.Stderr

func newSymptomsCmd() *cobra.Command {
	var output, catalogPath string

	cmd := &cobra.Command{
		Use:   "symptoms",
		Short: "List the symptoms known to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !formatter.ValidFormat(output) {
				return fmt.Errorf("unknown output format %q (want one of %s)", output, strings.Join(formatter.Formats, ", "))
			}
			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			return formatter.DisplaySymptoms(cmd.OutOrStdout(), catalog.Symptoms(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a condition catalog YAML file")

	return cmd
}
