// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the photoscan CLI. It stands in for
// the app's screens: import files into documents, edit page order, export
// PDFs, and read page text.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/photoscan/internal/logging"
	"github.com/pdiddy/photoscan/internal/secrets"
	"github.com/pdiddy/photoscan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, loaded before any subcommand runs.
	cfg types.Config

	// log is the process logger built from cfg.Log.
	log = zerolog.Nop()

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Set
)

var rootCmd = &cobra.Command{
	Use:   "photoscan",
	Short: "Turn documents and photos into page-image documents",
	Long: `photoscan converts PDFs, office documents, web pages, Markdown, and
images into documents made of page images. Documents can be reordered,
renamed, exported as A4 PDFs, and searched by recognized page text.

Data lives under the configured data directory: page images in pages/
and the document database next to them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		log = logging.New(cfg.Log, os.Stderr)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("secrets", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./photoscan.yaml or ~/.config/photoscan/photoscan.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides storage.data_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory holding credential files")

	_ = viper.BindPFlag("storage.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("photoscan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "photoscan"))
		}
	}

	viper.SetEnvPrefix("PHOTOSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(d types.Config) {
	viper.SetDefault("storage.data_dir", d.Storage.DataDir)
	viper.SetDefault("storage.pages_dir", d.Storage.PagesDir)
	viper.SetDefault("storage.db_file", d.Storage.DBFile)

	viper.SetDefault("conversion.render_dpi", d.Conversion.RenderDPI)
	viper.SetDefault("conversion.jpeg_quality", d.Conversion.JPEGQuality)
	viper.SetDefault("conversion.access_timeout", d.Conversion.AccessTimeout)
	viper.SetDefault("conversion.max_concurrent_jobs", d.Conversion.MaxConcurrentJobs)
	viper.SetDefault("conversion.renderer", string(d.Conversion.Renderer))
	viper.SetDefault("conversion.renderer_image", d.Conversion.RendererImage)
	viper.SetDefault("conversion.gotenberg_url", d.Conversion.GotenbergURL)
	viper.SetDefault("conversion.render_timeout", d.Conversion.RenderTimeout)

	viper.SetDefault("export.output_dir", d.Export.OutputDir)
	viper.SetDefault("export.producer", d.Export.Producer)
	viper.SetDefault("export.author", d.Export.Author)

	viper.SetDefault("ocr.languages", d.OCR.Languages)
	viper.SetDefault("ocr.tessdata_dir", d.OCR.TessdataDir)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes viper's merged settings into types.Config using the
// yaml tags, then fills anything left empty.
func loadConfig() (types.Config, error) {
	var c types.Config
	err := viper.Unmarshal(&c, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	c.ApplyDefaults()
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
