package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunchbox/config"
	httpapi "lunchbox/ledger-svc/internal/api/http"
	"lunchbox/ledger-svc/internal/service"
	"lunchbox/ledger-svc/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis()
	defer rdb.Close()
	store := storage.NewStore(rdb, config.GetDuration("LEDGER_RETENTION", 90*24*time.Hour))

	reader := config.NewKafkaReader(config.GetEnv("PAYMENTS_TOPIC", "payments"), "ledger-svc-consumer")
	defer reader.Close()
	go service.NewConsumer(reader, store).Start(ctx)

	r := mux.NewRouter()
	httpapi.NewHandler(service.NewLedgerService(store)).RegisterRoutes(r)

	addr := config.GetEnv("LEDGER_SVC_ADDR", ":8084")
	srv := &http.Server{Addr: addr, Handler: cors.Default().Handler(r)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down cleanly: %v", err)
		}
	}()

	log.Printf("Ledger Service starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
