package main

import (
	"flag"
	"log"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/reviewdesk/internal/app"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config.json (default: ./config.json)")
	flag.Parse()
	if err := app.Run(fyneapp.NewWithID(app.AppID), *cfgPath); err != nil {
		log.Fatalf("reviewdesk: %v", err)
	}
}
