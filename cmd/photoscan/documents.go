// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/photoscan/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.library.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-16s  %-5s  %s\n", "ID", "Created", "Pages", "Title")
		fmt.Fprintln(out, strings.Repeat("-", 90))
		for _, d := range docs {
			fmt.Fprintf(out, "%-36s  %-16s  %-5d  %s\n",
				d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04"), d.PageCount(), d.Title)
		}
		fmt.Fprintf(out, "\n%d document(s)\n", len(docs))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document and its pages in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.library.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDocument(cmd, doc)
		return nil
	},
}

func printDocument(cmd *cobra.Command, doc *types.Document) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:      %s\n", doc.ID)
	fmt.Fprintf(out, "Title:   %s\n", doc.Title)
	fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Pages:   %d\n", doc.PageCount())
	for i, ref := range doc.Pages {
		fmt.Fprintf(out, "  %3d  %s\n", i+1, ref)
	}
}

var renameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a document",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		doc, err := a.library.Rename(cmd.Context(), args[0], title)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", doc.ID, doc.Title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its page images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.library.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Reorder or remove pages of a document",
	Long: `Pages edits the page sequence of a document. Positions are 1-based, as
shown by "photoscan show". Removing a page also deletes its image.`,
}

var pagesMoveCmd = &cobra.Command{
	Use:   "move <id> <page> <to>",
	Short: "Move the page at one position to another",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid page %q: %w", args[1], err)
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[2], err)
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
		ref, err := pageAt(doc, from)
		if err != nil {
			return err
		}
		doc, err = a.library.MovePage(ctx, doc.ID, ref, to-1)
		if err != nil {
			return err
		}
		printDocument(cmd, doc)
		return nil
	},
}

var pagesRemoveCmd = &cobra.Command{
	Use:   "remove <id> <page>",
	Short: "Remove the page at a position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid page %q: %w", args[1], err)
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
		ref, err := pageAt(doc, n)
		if err != nil {
			return err
		}
		doc, _, err = a.library.RemovePage(ctx, doc.ID, ref)
		if err != nil {
			return err
		}
		if !doc.IsDisplayable() {
			fmt.Fprintln(cmd.OutOrStdout(), "Document has no pages left.")
		}
		printDocument(cmd, doc)
		return nil
	},
}

func init() {
	pagesCmd.AddCommand(pagesMoveCmd)
	pagesCmd.AddCommand(pagesRemoveCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(pagesCmd)
}
