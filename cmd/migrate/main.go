package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"depthcapture/internal/model"
	"depthcapture/internal/repository/sqlite"
	"depthcapture/internal/service/storage"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
)

func main() {
	imagesDir := pflag.String("images", "Data_image", "Directory containing captured images")
	dbPath := pflag.String("db", "data/captures.db", "Capture journal path")
	source := pflag.String("source", model.SourceUpload, "Source recorded for backfilled rows")
	dryRun := pflag.Bool("dry-run", false, "Scan and report without writing")
	pflag.Parse()

	fmt.Printf("Backfilling journal %s from %s\n", *dbPath, *imagesDir)

	store := storage.NewArtifactStore(*imagesDir)
	artifacts, err := store.List()
	if err != nil {
		log.Fatalf("Failed to list images: %v", err)
	}

	var records []model.CaptureRecord
	skipped := 0
	for _, a := range artifacts {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			log.Printf("Skipping %s: %v", a.Filename, err)
			skipped++
			continue
		}
		sum := blake3.Sum256(data)

		records = append(records, model.CaptureRecord{
			Filename:   a.Filename,
			Source:     *source,
			Size:       a.Size,
			Checksum:   hex.EncodeToString(sum[:]),
			CapturedAt: a.Created,
		})
	}

	if len(records) == 0 {
		fmt.Println("No images found to backfill")
		return
	}

	if *dryRun {
		fmt.Printf("Would journal %d images (%d skipped)\n", len(records), skipped)
		return
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewCaptureRepository(db)

	fmt.Printf("Journaling %d images...\n", len(records))
	if err := repo.BulkUpsert(records); err != nil {
		log.Fatalf("Failed to journal images: %v", err)
	}

	fmt.Printf("Journaled %d images\n", len(records))
	if skipped > 0 {
		fmt.Printf("Skipped %d files (read errors)\n", skipped)
	}

	stats, err := repo.GetStats()
	if err == nil {
		fmt.Printf("\nJournal statistics:\n")
		fmt.Printf("   Total captures: %d\n", stats.TotalCaptures)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Per source:\n")
		for src, count := range stats.PerSource {
			fmt.Printf("      - %s: %d\n", src, count)
		}
	}
}
