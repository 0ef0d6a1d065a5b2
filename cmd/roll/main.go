package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	rollcmd "github.com/louisbranch/rollable/internal/cmd/roll"
	"github.com/louisbranch/rollable/internal/platform/config"
)

func main() {
	cfg, err := rollcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ROLL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rollcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("roll: %v", err)
	}
}
