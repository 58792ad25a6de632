// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a document as an A4 PDF",
	Long: `Export writes the document's pages, in order, into Doc_<epoch>.pdf with
one A4 page per image. Each image is scaled to fit and centered. Pages
whose images cannot be loaded are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.Export.OutputDir
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		doc, err := a.library.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		asm := newAssembler()
		asm.Title = doc.Title
		res, err := asm.ExportDocument(ctx, doc, a.pages, outDir, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d page(s) to %s\n", res.Pages, res.Path)
		if res.Dropped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d page(s) that could not be loaded\n", res.Dropped)
		}
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Write a listing of all documents as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "yaml", "":
			err = a.library.ExportYAML(cmd.Context(), w)
		case "json":
			err = a.library.ExportJSON(cmd.Context(), w)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		if outPath != "" {
			fmt.Fprintf(os.Stderr, "Exported catalog to %s\n", outPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output directory (default from config)")

	catalogCmd.Flags().String("format", "yaml", "catalog format: yaml or json")
	catalogCmd.Flags().String("out", "", "write to this file instead of stdout")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)
}
