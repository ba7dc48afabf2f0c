package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sfomuseum/go-imagery-index/export"
	"github.com/sfomuseum/go-imagery-index/operations/dist"
)

func main() {

	dist_dir := flag.String("dist", envOr("IMAGERY_DIST", "dist"), "The directory canonical artifacts were published to. Legacy exports are written beneath it.")
	icon_base := flag.String("icon-base", envOr("IMAGERY_ICON_BASE", export.DefaultIconBase), "The CDN prefix bare icon file names are rewritten under.")

	flag.Parse()

	ctx := context.Background()

	opts := &dist.Options{
		DistDir:  *dist_dir,
		IconBase: *icon_base,
	}

	err := dist.Run(ctx, opts)

	if err != nil {
		log.Fatalf("Error - %v", err)
	}

	log.Println("dist built")
}

func envOr(key string, def string) string {

	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
