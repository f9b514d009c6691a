// README: Entry point; loads config, wires the world, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatchsim/internal/config"
	"dispatchsim/internal/httpapi"
	"dispatchsim/internal/observer"
	"dispatchsim/internal/sim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "dispatchsim ", log.LstdFlags)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Printf("world seed %d", seed)

	world := sim.NewWorld(cfg.Sim, rand.New(rand.NewSource(seed)), logger)
	hub := observer.NewHub(logger)
	handler := httpapi.NewRouter(world, hub, logger)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
