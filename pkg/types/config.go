package types

import "time"

// Page geometry for rendered and exported pages, in PDF points (ISO A4).
const (
	PageWidthPt  = 595.2
	PageHeightPt = 841.8
)

// PageSize is a page's width and height in PDF points.
type PageSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// A4 is the fixed size used for rendering and export.
var A4 = PageSize{Width: PageWidthPt, Height: PageHeightPt}

// Inches returns the size in inches (72 points per inch).
func (p PageSize) Inches() (w, h float64) {
	return p.Width / 72, p.Height / 72
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataDir is the app-private base directory (contains pages/ and the database).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// PagesDir holds page images named <token>.jpg. Relative paths resolve
	// against DataDir (default "pages").
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// DBFile is the SQLite document database, relative to DataDir (default "photoscan.db").
	DBFile string `json:"db_file" yaml:"db_file"`
}

// RendererBackend identifies the external document renderer.
type RendererBackend string

const (
	RendererContainer RendererBackend = "container"
	RendererGotenberg RendererBackend = "gotenberg"
)

// ConversionConfig holds settings for the import pipeline.
type ConversionConfig struct {
	// RenderDPI is the resolution used when rasterizing PDF pages (default 150).
	RenderDPI float64 `json:"render_dpi" yaml:"render_dpi"`

	// JPEGQuality is the page image quality, 1-100 (default 80).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// AccessTimeout bounds how long a job waits for exclusive access to its
	// input file (default 5s).
	AccessTimeout time.Duration `json:"access_timeout" yaml:"access_timeout"`

	// MaxConcurrentJobs limits parallel jobs in a batch import (default 4).
	MaxConcurrentJobs int `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`

	// Renderer selects the document renderer: container or gotenberg.
	Renderer RendererBackend `json:"renderer" yaml:"renderer"`

	// RendererImage is the container image for the container backend.
	RendererImage string `json:"renderer_image" yaml:"renderer_image"`

	// GotenbergURL is the base URL of a Gotenberg service.
	GotenbergURL string `json:"gotenberg_url" yaml:"gotenberg_url"`

	// RenderTimeout is the HTTP timeout for the gotenberg backend (default 2m).
	RenderTimeout time.Duration `json:"render_timeout" yaml:"render_timeout"`
}

// ExportConfig holds PDF export settings.
type ExportConfig struct {
	// OutputDir is where Doc_<epoch>.pdf files are written (default ".").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Producer is written to the PDF Producer and Creator fields.
	Producer string `json:"producer" yaml:"producer"`

	// Author is written to the PDF Author field.
	Author string `json:"author" yaml:"author"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	// Languages are tesseract language codes (default ["eng"]).
	Languages []string `json:"languages" yaml:"languages"`

	// TessdataDir points at the accurate model set (tessdata_best). Empty
	// uses the tesseract default.
	TessdataDir string `json:"tessdata_dir,omitempty" yaml:"tessdata_dir,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format"`
}

// Config groups all settings.
type Config struct {
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	OCR        OCRConfig        `json:"ocr" yaml:"ocr"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "photoscan-data"
	}
	if c.Storage.PagesDir == "" {
		c.Storage.PagesDir = "pages"
	}
	if c.Storage.DBFile == "" {
		c.Storage.DBFile = "photoscan.db"
	}

	if c.Conversion.RenderDPI <= 0 {
		c.Conversion.RenderDPI = 150
	}
	if c.Conversion.JPEGQuality <= 0 || c.Conversion.JPEGQuality > 100 {
		c.Conversion.JPEGQuality = 80
	}
	if c.Conversion.AccessTimeout <= 0 {
		c.Conversion.AccessTimeout = 5 * time.Second
	}
	if c.Conversion.MaxConcurrentJobs <= 0 {
		c.Conversion.MaxConcurrentJobs = 4
	}
	if c.Conversion.Renderer == "" {
		c.Conversion.Renderer = RendererContainer
	}
	if c.Conversion.RendererImage == "" {
		c.Conversion.RendererImage = "photoscan-office:latest"
	}
	if c.Conversion.GotenbergURL == "" {
		c.Conversion.GotenbergURL = "http://localhost:3000"
	}
	if c.Conversion.RenderTimeout <= 0 {
		c.Conversion.RenderTimeout = 2 * time.Minute
	}

	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
	if c.Export.Producer == "" {
		c.Export.Producer = "PhotoScan Pro"
	}
	if c.Export.Author == "" {
		c.Export.Author = "User"
	}

	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
