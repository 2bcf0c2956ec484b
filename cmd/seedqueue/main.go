// Small tool to push a JSON file of tracks onto the download queue, for
// seeding a test server or bulk-adding an album export.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: seedqueue <tracks.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.HasServerConfig() {
		log.Fatalf("No server configured: set [server] url and apikey in config.toml")
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read %s: %v", os.Args[1], err)
	}

	var tracks []api.TrackDescriptor
	if err := json.Unmarshal(data, &tracks); err != nil {
		log.Fatalf("Failed to parse %s: %v", os.Args[1], err)
	}
	if len(tracks) == 0 {
		log.Fatalf("No tracks in %s", os.Args[1])
	}
	log.Printf("Enqueueing %d tracks on %s", len(tracks), cfg.Server.URL)

	client := api.NewClient(cfg.Server.URL, staticKey(cfg.Server.APIKey))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.AddTracks(ctx, tracks)
	if err != nil {
		log.Fatalf("Failed to add tracks: %v", err)
	}
	log.Printf("Done: %d added, %d skipped as duplicates", result.Added, result.Skipped)
}

type staticKey string

func (k staticKey) APIKey() string { return string(k) }
func (k staticKey) Invalidate()    {}
