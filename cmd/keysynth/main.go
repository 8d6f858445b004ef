package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/lixenwraith/keysynth/core"
	"github.com/lixenwraith/keysynth/service"
	"github.com/lixenwraith/keysynth/terminal"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		return 2
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keysynth: %v\n", err)
		return 1
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "keysynth: stdin and stdout must be a terminal")
		return 1
	}

	if logFile := setupLogging(cfg.Debug); logFile != nil {
		defer logFile.Close()
	}

	// Services: synth depends on audio and scheduler; StopAll runs in reverse
	audioSvc := service.NewAudioService()
	schedSvc := service.NewSchedulerService(nil)
	synthSvc := service.NewSynthService(audioSvc, schedSvc)

	hub := service.NewHub()
	for _, svc := range []service.Service{audioSvc, schedSvc, synthSvc} {
		if err := hub.Register(svc); err != nil {
			fmt.Fprintf(os.Stderr, "keysynth: %v\n", err)
			return 1
		}
	}
	if err := hub.InitAll(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "keysynth: %v\n", err)
		return 1
	}
	if err := hub.StartAll(); err != nil {
		fmt.Fprintf(os.Stderr, "keysynth: %v\n", err)
		return 1
	}

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		hub.StopAll()
		fmt.Fprintf(os.Stderr, "keysynth: terminal: %v\n", err)
		return 1
	}
	// Voices and audio go down before the terminal is restored
	defer func() {
		hub.StopAll()
		screen.Fini()
	}()

	core.SetCrashCleanup(screen.Fini)
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	var reason string
	if audioSvc.IsDisabled() {
		reason = audioSvc.Err().Error()
	}

	ui := terminal.New(screen, synthSvc.Manager(), terminal.Options{
		HoldTimeout: cfg.Input.HoldTimeout.Duration,
		Mouse:       cfg.Input.Mouse,
		Reason:      reason,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = ui.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("keysynth: %v", err)
		return 1
	}
	return 0
}
