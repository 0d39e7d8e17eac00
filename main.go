package main

import (
	"embed"
	"log"

	"reaper-video-fx/internal/bootstrap"
)

//go:embed frontend
var frontendAssets embed.FS

func main() {
	app, err := bootstrap.NewWithAssets(frontendAssets)
	if err != nil {
		log.Fatalf("start reaper-video-fx: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run desktop app: %v", err)
	}
}
