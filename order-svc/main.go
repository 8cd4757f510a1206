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
	httpapi "lunchbox/order-svc/internal/api/http"
	"lunchbox/order-svc/internal/domain"
	"lunchbox/order-svc/internal/gateway"
	"lunchbox/order-svc/internal/service"
	"lunchbox/order-svc/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func mustInitOrderStore(ctx context.Context) service.OrderStore {
	switch kind := config.GetEnv("ORDER_STORE", "postgres"); kind {
	case "postgres":
		db := config.MustInitPostgres()
		if err := storage.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		return storage.NewPostgresStore(db)
	case "mongo":
		store := storage.NewMongoStore(config.MustInitMongo(ctx))
		if err := store.CreateIndexes(ctx); err != nil {
			log.Fatal("Failed to create Mongo indexes:", err)
		}
		return store
	case "memory":
		log.Println("Using in-memory order store; orders are lost on restart")
		return storage.NewMemoryStore()
	default:
		log.Fatalf("Unknown ORDER_STORE %q", kind)
		return nil
	}
}

func newPaymentGateway() (service.PaymentGateway, *gateway.SandboxGateway) {
	account := domain.Account{
		BankBin:       config.GetEnv("PAYMENT_BANK_BIN", "970422"),
		AccountNumber: config.GetEnv("PAYMENT_ACCOUNT_NUMBER", "0000000000"),
		AccountName:   config.GetEnv("PAYMENT_ACCOUNT_NAME", "LUNCHBOX"),
	}
	if config.GetEnv("PAYMENT_PROVIDER", "sandbox") == "sandbox" {
		log.Println("Using sandbox payment provider")
		sandbox := gateway.NewSandboxGateway(account)
		return sandbox, sandbox
	}
	return gateway.NewHTTPGateway(gateway.Config{
		BaseURL:     config.GetEnv("PAYMENT_BASE_URL", "https://api-merchant.payos.vn"),
		ClientID:    os.Getenv("PAYMENT_CLIENT_ID"),
		APIKey:      os.Getenv("PAYMENT_API_KEY"),
		ChecksumKey: os.Getenv("PAYMENT_CHECKSUM_KEY"),
		ReturnURL:   os.Getenv("PAYMENT_RETURN_URL"),
		CancelURL:   os.Getenv("PAYMENT_CANCEL_URL"),
		Timeout:     config.GetDuration("PAYMENT_TIMEOUT", 10*time.Second),
	}, nil), nil
}

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := time.LoadLocation(config.GetEnv("RESTAURANT_TZ", "Asia/Ho_Chi_Minh"))
	if err != nil {
		log.Fatal("Invalid RESTAURANT_TZ:", err)
	}
	clock := service.SystemClock{Location: location}

	orders := mustInitOrderStore(ctx)

	rdb := config.MustInitRedis()
	defer rdb.Close()
	sessions := storage.NewRedisSessionRepository(rdb, config.GetDuration("SESSION_RETENTION", 7*24*time.Hour))

	writer := config.NewKafkaWriter(config.GetEnv("PAYMENTS_TOPIC", "payments"))
	defer writer.Close()
	publisher := storage.NewKafkaPublisher(writer)

	paymentGateway, sandbox := newPaymentGateway()

	engine := service.NewReconcileEngine(orders, sessions, clock, config.GetInt("RECONCILE_MAX_PARALLEL", service.DefaultMaxParallel))
	orderSvc := service.NewOrderService(orders, engine, clock)
	manager := service.NewSessionManager(sessions, orders, paymentGateway, publisher,
		service.DefaultQRGenerator{Size: config.GetInt("QR_SIZE", 256)}, clock,
		service.SessionConfig{TTL: config.GetDuration("SESSION_TTL", service.DefaultSessionTTL)})

	go service.NewStatusPoller(manager, sessions, config.GetDuration("PAYMENT_POLL_INTERVAL", service.DefaultPollInterval)).Run(ctx)
	go service.NewSettlementRetrier(manager, sessions, config.GetDuration("SETTLEMENT_RETRY_INTERVAL", service.DefaultRetryInterval)).Run(ctx)

	handler := httpapi.NewHandler(orderSvc, manager, clock)
	if sandbox != nil {
		handler.Sandbox = sandbox
	}
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	addr := config.GetEnv("ORDER_SVC_ADDR", ":8081")
	srv := &http.Server{Addr: addr, Handler: cors.Default().Handler(r)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down cleanly: %v", err)
		}
	}()

	log.Printf("Order Service starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
