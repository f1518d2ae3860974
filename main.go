package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	extractApp "mongoextract/internal/app"
	"mongoextract/internal/cli"
	"mongoextract/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	os.Exit(cli.Execute(cli.Deps{GUI: runGUI}, os.Args[1:]))
}

func runGUI(cfg *config.Config, logger *slog.Logger) error {
	app := extractApp.New(cfg, logger)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Mongo Extract",
		Width:     960,
		Height:    720,
		MinWidth:  640,
		MinHeight: 560,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: mac.TitleBarDefault(),
			About: &mac.AboutInfo{
				Title:   "Mongo Extract",
				Message: "Export MongoDB query results to CSV or Excel",
			},
		},
	})
}
