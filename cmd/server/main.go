package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"arenasrv/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
