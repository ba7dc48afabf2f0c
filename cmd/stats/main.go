package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sfomuseum/go-imagery-index/operations/stats"
)

func main() {

	features := flag.String("features", envOr("IMAGERY_FEATURES", "features"), "The directory containing boundary region records.")
	sources := flag.String("sources", envOr("IMAGERY_SOURCES", "sources"), "The directory containing imagery source records.")

	flag.Parse()

	ctx := context.Background()

	opts := &stats.Options{
		FeaturesDir: *features,
		SourcesDir:  *sources,
	}

	err := stats.Run(ctx, opts)

	if err != nil {
		log.Fatalf("Error - %v", err)
	}
}

func envOr(key string, def string) string {

	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
