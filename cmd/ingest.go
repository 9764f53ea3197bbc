package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/convosol/docchat/internal/types"
	"github.com/convosol/docchat/pkg/config"
	"github.com/convosol/docchat/pkg/ingest"
	"github.com/convosol/docchat/pkg/loader"
)

func runIngest(cfg *config.Config, docsURL string) error {
	vs, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer vs.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	var source types.DocumentSource
	if docsURL != "" {
		source, err = loader.NewWebSource(loader.WebSourceConfig{BaseURL: docsURL})
		if err != nil {
			return err
		}
		color.Blue("Crawling %s", docsURL)
	} else {
		source = loader.NewDirSource(cfg.Ingest.DocsDir)
		color.Blue("Reading documents from %s", cfg.Ingest.DocsDir)
	}

	bar := getProgressBar(-1, " Embedding chunks")
	pipeline, err := ingest.NewPipeline(ingest.PipelineConfig{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
		OnChunk: func(filename string, chunkIndex int) {
			bar.Add(1)
			bar.Describe(color.BlueString(" Embedding %s", filename))
		},
	}, source, embedder, vs)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(context.Background())
	bar.Finish()
	if err != nil {
		return err
	}

	color.Green("✓ Ingested %d documents into %d chunks (store size: %d)\n",
		summary.Documents, summary.ChunksWritten, vs.Len())
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
