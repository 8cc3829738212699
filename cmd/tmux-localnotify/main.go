package main

import (
	"os"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/cristianoliveira/tmux-localnotify/internal/colors"
	"github.com/cristianoliveira/tmux-localnotify/internal/config"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], cmd.Execute))
}

func run(args []string, execute func([]string) error) int {
	config.Load()
	colors.SetDebug(config.GetBool("debug", false))
	if err := logging.InitGlobal(); err != nil {
		colors.Warning("logging disabled: " + err.Error())
	}
	defer func() { _ = logging.ShutdownGlobal() }()

	log := logging.With("component", "startup")
	log.Info("started", "args", len(args))

	err := execute(args)
	if cerr := appClient.Close(); cerr != nil {
		log.Warn("close failed", "error", cerr.Error())
	}
	if err != nil {
		colors.Error(err.Error())
		log.Error("failed", "error", err.Error())
		return 1
	}
	log.Info("completed")
	return 0
}
