package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msomdec/strikkeguide/internal/acquire"
	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		useLLM bool
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract a pattern document from a PDF, image or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if useLLM {
				a.cfg.Extract.Mode = service.ModeLLM
			}
			extraction, err := a.cfg.NewExtractionService(a.logger)
			if err != nil {
				return err
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			doc, res, err := extraction.ExtractFile(cmd.Context(), src)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				a.logger.Warn("extract.warning", "file", src.Filename, "warning", w)
			}
			return writeDocument(cmd.OutOrStdout(), doc, pretty)
		},
	}
	cmd.Flags().BoolVar(&useLLM, "llm", false, "Use the remote model instead of the configured mode")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func readSource(path string) (acquire.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return acquire.Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return acquire.Source{Filename: filepath.Base(path), Data: data}, nil
}

func writeDocument(w io.Writer, doc *domain.PatternDocument, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
