// Command app runs the desktop UI serving ./frontend from disk for development.
package main

import (
	"log"

	"reaper-video-fx/internal/bootstrap"
)

func main() {
	app, err := bootstrap.New()
	if err != nil {
		log.Fatalf("start reaper-video-fx: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run desktop app: %v", err)
	}
}
