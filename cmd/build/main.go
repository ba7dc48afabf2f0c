package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sfomuseum/go-imagery-index/operations/build"
)

func main() {

	features := flag.String("features", envOr("IMAGERY_FEATURES", "features"), "The directory containing boundary region records.")
	sources := flag.String("sources", envOr("IMAGERY_SOURCES", "sources"), "The directory containing imagery source records.")
	dist := flag.String("dist", envOr("IMAGERY_DIST", "dist"), "The directory canonical artifacts are published to.")
	i18n := flag.String("i18n", envOr("IMAGERY_I18N", "i18n/en.yaml"), "The path the English locale string table is written to.")

	flag.Parse()

	ctx := context.Background()

	opts := &build.Options{
		FeaturesDir: *features,
		SourcesDir:  *sources,
		DistDir:     *dist,
		I18nPath:    *i18n,
	}

	err := build.Run(ctx, opts)

	if err != nil {
		log.Fatalf("Error - %v", err)
	}

	log.Println("data built")
}

func envOr(key string, def string) string {

	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
