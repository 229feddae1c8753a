package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/extract"
	"github.com/msomdec/strikkeguide/internal/service"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		size string
		step int
	)
	cmd := &cobra.Command{
		Use:   "render DOC.json",
		Short: "Print a pattern document resolved for one size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if size == "" {
				size = doc.EffectiveSizes()[0]
			}
			if !doc.HasSize(size) {
				a.logger.Warn("render.unknown_size", "size", size, "sizes", strings.Join(doc.EffectiveSizes(), ", "))
			}

			out := cmd.OutOrStdout()
			if step == 0 {
				text := service.RenderPatternText(doc, size)
				for _, rs := range service.ResolveDocument(doc, size) {
					warnUnresolved(a, rs)
				}
				_, err := fmt.Fprint(out, text)
				return err
			}
			if step < 1 || step > len(doc.Steps) {
				return fmt.Errorf("step %d out of range 1..%d", step, len(doc.Steps))
			}
			rs := service.ResolveStep(doc.Steps[step-1], size)
			rs.Index = step - 1
			warnUnresolved(a, rs)
			if rs.Title != "" {
				fmt.Fprintln(out, rs.Title)
			}
			_, err = fmt.Fprintln(out, rs.Text)
			return err
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "Size to render (default: first declared size)")
	cmd.Flags().IntVar(&step, "step", 0, "Render only this step, counting from 1")
	return cmd
}

func warnUnresolved(a *app, rs service.RenderedStep) {
	if len(rs.Unresolved) > 0 {
		a.logger.Warn("render.unresolved", "step", rs.Index+1, "size", rs.Size, "tokens", strings.Join(rs.Unresolved, " "))
	}
}

func readDocument(path string) (*domain.PatternDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var doc domain.PatternDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := extract.Check(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
