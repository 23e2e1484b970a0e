// DNG De-squeeze desktop app. The same batch as cmd/desqueeze behind a window with a
// progress bar and a log pane.
package main

import (
	"flag"

	"dng-desqueeze/config"
	"dng-desqueeze/ui"
	"dng-desqueeze/util/log"

	"fyne.io/fyne/v2/app"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	myApp := app.NewWithID(config.AppID)
	ui.New(myApp, cfg).ShowAndRun()
}
