package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zombor/label-dates/internal/dates"
	"github.com/zombor/label-dates/internal/label"
	"github.com/zombor/label-dates/internal/version"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "label-scan",
		Short: "Extract manufacturing and expiry dates from product labels",
		Long: `label-scan finds the manufacturing (MFG) and expiry (EXP) dates printed on a
product label and prints them as JSON in YYYY-MM-DD form.

Use "text" when you already have the OCR output and "image" to read a label
photo with one of the OCR backends.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Log OCR and engine details to stderr")

	root.AddCommand(newTextCmd(), newImageCmd())
	return root
}

// writeResult prints the dates found for name as indented JSON
func writeResult(w io.Writer, name string, roles dates.Roles) error {
	if roles == nil {
		roles = dates.Roles{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(label.UploadResponse{
		Filename: name,
		Status:   len(roles) > 0,
		Dates:    roles,
	}); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
