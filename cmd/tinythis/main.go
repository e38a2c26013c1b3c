// Command tinythis compresses video files with ffmpeg and manages its
// own install lifecycle: encoder assets, user PATH registration,
// self-update and self-removal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wraithsoul/tinythis/internal/config"
	"github.com/wraithsoul/tinythis/internal/logger"
	"github.com/wraithsoul/tinythis/internal/paths"
	"github.com/wraithsoul/tinythis/internal/update"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	layout, err := paths.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	cfg, err := config.Load(layout.AppRoot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       layout.LogDir(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	app := &app{layout: layout, cfg: cfg, log: log}

	var cmdErr error
	switch {
	case len(args) > 0 && args[0] == "setup":
		cmdErr = app.cmdSetup(args[1:])
	case len(args) > 0 && args[0] == "update":
		cmdErr = app.cmdUpdate(args[1:])
	case len(args) > 0 && args[0] == "uninstall":
		cmdErr = app.cmdUninstall(args[1:])
	case len(args) > 0 && args[0] == "self-replace":
		cmdErr = app.cmdSelfReplace(args[1:])
	case len(args) > 0 && args[0] == "self-remove":
		cmdErr = app.cmdSelfRemove(args[1:])
	default:
		cmdErr = app.cmdCompress(args)
	}

	if cmdErr != nil {
		if cmdErr == flag.ErrHelp {
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", cmdErr)
		return 1
	}
	return 0
}

type app struct {
	layout paths.Layout
	cfg    *config.Config
	log    *logger.Logger
}

// repo returns the release feed slug, honoring a config override.
func (a *app) repo() string {
	if a.cfg.Update.Repo != "" {
		return a.cfg.Update.Repo
	}
	return update.DefaultRepo
}

func usage() {
	fmt.Fprint(os.Stderr, `tinythis - a lightweight ffmpeg wrapper

usage:
  tinythis [--mode quality|balanced|speed] <input>...
  tinythis setup [--force] [--yes]       install ffmpeg and add tinythis to your PATH
  tinythis setup path                    add tinythis to your user PATH
  tinythis update [--yes]                check releases and update tinythis
  tinythis uninstall                     remove ffmpeg and tinythis
`)
}
