package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/oakmart/storefront/internal/api"
	"github.com/oakmart/storefront/internal/auth"
	"github.com/oakmart/storefront/internal/cart"
	"github.com/oakmart/storefront/internal/catalog"
	"github.com/oakmart/storefront/internal/checkout"
	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/inventory"
	"github.com/oakmart/storefront/internal/messaging"
	"github.com/oakmart/storefront/internal/orders"
	"github.com/oakmart/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, domain.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
	}

	catalogRepo := catalog.NewRepository(db)
	ledger := inventory.NewLedger(db)
	cartRepo := cart.NewRepository(db)
	ordersRepo := orders.NewRepository(db)

	cartService := cart.NewService(cartRepo, catalogRepo, ledger, logger)
	ordersService := orders.NewService(db, ordersRepo, publisherOrNil(producer), logger)
	checkoutService := checkout.NewService(db, checkout.FlatPricer{}, publisherOrNil(producer), logger)

	cartHandler := cart.NewHandler(cartService, logger)
	ordersHandler := orders.NewHandler(ordersService, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	inventoryHandler := inventory.NewHandler(ledger, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", route(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", route(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{productId}", route(cartHandler.HandleUpdateItem))
	mux.HandleFunc("DELETE /cart/items/{productId}", route(cartHandler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", route(cartHandler.HandleClear))
	mux.HandleFunc("POST /checkout", route(checkoutHandler.HandleCheckout))
	mux.HandleFunc("GET /orders", route(ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", route(ordersHandler.HandleGet))
	mux.HandleFunc("POST /orders/{id}/cancel", route(ordersHandler.HandleCancel))
	mux.HandleFunc("PATCH /orders/{id}/status", route(ordersHandler.HandleAdvance))
	mux.HandleFunc("GET /stock", route(inventoryHandler.HandleListStock))
	mux.HandleFunc("GET /stock/{productId}", route(inventoryHandler.HandleGetStock))

	root := http.NewServeMux()
	root.Handle("/", auth.Middleware(mux))
	root.Handle("GET /metrics", metricsHandler)
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		api.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(root, "storefront-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront api", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func route(h http.HandlerFunc) http.HandlerFunc {
	return telemetry.WithHTTPRoute(h)
}

// publisherOrNil avoids handing services a typed nil wrapped in an interface.
func publisherOrNil(p *messaging.Producer) interface {
	Publish(ctx context.Context, key string, event any) error
} {
	if p == nil {
		return nil
	}
	return p
}
