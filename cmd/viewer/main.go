// Package main starts the viewer service and handles termination.
//
// The process is a local state-synchronization layer between the game engine
// and the desktop front end: it mirrors pushed engine state into stores and
// serves them over a local HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	viewercmd "github.com/arbourlane/vigil/internal/cmd/viewer"
	"github.com/arbourlane/vigil/internal/platform/config"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		config.Exitf("load env: %v", err)
	}
	cfg, err := viewercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[VIEWER] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := viewercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
