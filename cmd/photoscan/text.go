// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/photoscan/pkg/types"
)

var textCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Recognize the text of one page",
	Long: `Text runs OCR on one page of a document (the first page unless --page
is given) and prints the recognized lines. Results are kept in the
database so later calls and "photoscan search" reuse them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("page")
		refresh, _ := cmd.Flags().GetBool("refresh")

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
		ref, err := pageAt(doc, n)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !refresh {
			text, ok, err := a.library.PageText(ctx, ref)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(out, text)
				return nil
			}
		}

		img, err := a.pages.Load(ref)
		if err != nil {
			return err
		}
		text, err := newExtractor().Extract(ctx, img)
		if errors.Is(err, types.ErrNoTextFound) {
			fmt.Fprintln(out, "No text found.")
			return nil
		}
		if err != nil {
			return err
		}
		if err := a.library.SetPageText(ctx, ref, text); err != nil {
			log.Warn().Err(err).Str("ref", string(ref)).Msg("could not save page text")
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search recognized page text",
	Long: `Search matches words against the text recognized by "photoscan text"
and lists the pages that contain all of them. Pages never run through
OCR are not searchable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		hits, err := a.library.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(hits) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-4s  %-30s  %s\n", "Document", "Page", "Title", "Snippet")
		fmt.Fprintln(out, strings.Repeat("-", 110))
		for _, h := range hits {
			title := h.Title
			if len(title) > 30 {
				title = title[:27] + "..."
			}
			fmt.Fprintf(out, "%-36s  %-4d  %-30s  %s\n",
				h.DocumentID, h.Page, title, strings.ReplaceAll(h.Snippet, "\n", " "))
		}
		fmt.Fprintf(out, "\n%d results\n", len(hits))
		return nil
	},
}

func init() {
	textCmd.Flags().Int("page", 1, "1-based page position")
	textCmd.Flags().Bool("refresh", false, "run OCR again even if text is cached")

	searchCmd.Flags().Int("limit", 20, "maximum number of results")

	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(searchCmd)
}
