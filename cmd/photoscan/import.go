// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/photoscan/internal/convert"
	"github.com/pdiddy/photoscan/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import [files or URLs...]",
	Short: "Import files as page-image documents",
	Long: `Import converts each file into page images and stores them as a new
document titled "Import <date>". PDFs are rasterized page by page, office
documents, web pages, and Markdown are rendered to PDF first, and images
are stored as single pages. Pages that fail to render are skipped.

Arguments that are http or https URLs are downloaded first, so shared web
pages and linked documents import like local files.

Use --into to append the pages to an existing document instead, or --scan
to fold image files into one "Scan <date>" document as if captured with
the camera.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("into", "", "append imported pages to this document ID")
	importCmd.Flags().Bool("scan", false, "fold image files into one scanned document")
	importCmd.Flags().Int("jobs", 0, "maximum concurrent jobs (default from config)")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	into, _ := cmd.Flags().GetString("into")
	scan, _ := cmd.Flags().GetBool("scan")
	limit, _ := cmd.Flags().GetInt("jobs")
	if limit <= 0 {
		limit = cfg.Conversion.MaxConcurrentJobs
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if into != "" {
		if _, err := a.library.Get(ctx, into); err != nil {
			return err
		}
	}

	if scan {
		return runScan(ctx, cmd.OutOrStdout(), a, args, into)
	}

	client := &http.Client{Timeout: cfg.Conversion.RenderTimeout}
	resources := make([]convert.Resource, len(args))
	for i, arg := range args {
		if convert.IsURL(arg) {
			resources[i] = convert.NewURLResource(arg, client, log)
			continue
		}
		resources[i] = convert.NewFileResource(arg, cfg.Conversion.AccessTimeout)
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	jobs := a.orchestrator().RunBatch(ctx, resources, limit, func(*types.ConversionJob) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	for _, job := range jobs {
		if !job.Succeeded() {
			fmt.Fprintf(out, "  FAIL     %s: %v\n", job.Source, job.Err)
			continue
		}
		doc, err := a.place(ctx, job, "Import", into)
		if err != nil {
			// The job's pages were stored but belong to no document.
			a.releasePages(job.Pages)
			job.State = types.JobFailed
			job.Err = err
			fmt.Fprintf(out, "  FAIL     %s: %v\n", job.Source, err)
			continue
		}
		fmt.Fprintf(out, "  %-8s %s -> %s (%d page(s), %d dropped)\n",
			statusLabel(job), job.Source, doc.ID, len(job.Pages), job.Dropped)
	}

	result := convert.Summarize(jobs)
	result.Print(out)
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed to import", result.Failed)
	}
	return nil
}

// runScan decodes each file as a captured photo and stores them as one
// document. Files that do not decode are dropped like unreadable frames.
func runScan(ctx context.Context, out io.Writer, a *app, paths []string, into string) error {
	images := make([]image.Image, len(paths))
	for i, path := range paths {
		img, err := decodeImage(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping capture")
			continue
		}
		images[i] = img
	}

	job := a.orchestrator().Capture(ctx, images)
	if !job.Succeeded() {
		return job.Err
	}
	doc, err := a.place(ctx, job, "Scan", into)
	if err != nil {
		a.releasePages(job.Pages)
		return err
	}
	fmt.Fprintf(out, "%s: %d page(s), %d dropped\n", doc.ID, len(job.Pages), job.Dropped)
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// place creates a document from the job, or appends to into when set.
func (a *app) place(ctx context.Context, job *types.ConversionJob, source, into string) (*types.Document, error) {
	if into != "" {
		return a.library.AppendPages(ctx, into, job.Pages)
	}
	return a.library.CreateFromJob(ctx, job, source)
}

func (a *app) releasePages(refs []types.PageRef) {
	for _, ref := range refs {
		if err := a.pages.Delete(ref); err != nil {
			log.Warn().Err(err).Str("ref", string(ref)).Msg("could not release page")
		}
	}
}

func statusLabel(job *types.ConversionJob) string {
	if job.Status() == types.StatusPartial {
		return "PARTIAL"
	}
	return "OK"
}
