package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zombor/label-dates/internal/dates"
)

func newTextCmd() *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "text [ocr text | -]",
		Short: "Resolve dates from OCR text",
		Example: `  label-scan text "MFD 10/01/2023 BEST BEFORE 10/01/2025"
  tesseract label.jpg - | label-scan text -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}
			// The engine expects uppercase input
			text = strings.ToUpper(strings.Join(strings.Fields(text), " "))

			resolver := dates.NewResolver(dates.DefaultVocabulary())
			if trace {
				roles := dates.Roles{}
				for _, stage := range resolver.Stages() {
					roles = stage.Run(text, roles)
					fmt.Fprintf(cmd.ErrOrStderr(), "%-14s %v\n", stage.Name, roles)
				}
			}

			roles := resolver.Resolve(text)
			slog.Debug("Resolved dates", "text", text, "dates", roles)
			return writeResult(cmd.OutOrStdout(), "", roles)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Print the roles after each stage to stderr")
	return cmd
}
