package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"           // Loads .env files into the environment
	"github.com/labstack/echo/v4"        // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo built-in middleware

	"github.com/iliyamo/tour-checkout/internal/config"       // Internal config loader
	"github.com/iliyamo/tour-checkout/internal/gateway"      // Payment gateway adapter
	"github.com/iliyamo/tour-checkout/internal/handler"      // HTTP handlers
	"github.com/iliyamo/tour-checkout/internal/invoice"      // Invoice assembler
	"github.com/iliyamo/tour-checkout/internal/ledger"       // Order ledger adapter
	"github.com/iliyamo/tour-checkout/internal/middleware"   // Rate limiting middleware
	"github.com/iliyamo/tour-checkout/internal/orchestrator" // Checkout state machine
	"github.com/iliyamo/tour-checkout/internal/queue"        // Broker events and consumer
	"github.com/iliyamo/tour-checkout/internal/router"       // Route registration
	queue_publisher "github.com/iliyamo/tour-checkout/internal/service"
	"github.com/iliyamo/tour-checkout/internal/store" // Order/idempotency store
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win
	cfg := config.Load()

	// Payment gateway and ledger adapters; both carry mandatory
	// per-call timeouts.
	gw, err := gateway.NewPayPalClient(cfg)
	if err != nil {
		log.Fatalf("payment gateway init failed: %v", err)
	}
	lg := ledger.NewClient(cfg)

	// The order store is the only shared mutable state: Redis when
	// available, in-memory otherwise.
	var orders store.OrderStore
	rdb := config.NewRedisClient()
	if rdb != nil {
		orders = store.NewRedisStore(rdb, 0, 0)
		log.Printf("order store: redis")
	} else {
		orders = store.NewMemoryStore()
		log.Printf("order store: memory (no redis server reachable)")
	}

	// Broker events run only when a broker is actually configured; with
	// no URL the publisher is nil and no consumer goroutine is started.
	var publish orchestrator.EventPublisher
	if cfg.RabbitURL != "" {
		publish = queue_publisher.NewOrderCapturedPublisher(cfg.RabbitURL)
		// Background consumer appending captured orders to logs/orders.log.
		go func() {
			if err := queue.StartOrderConsumer(cfg.RabbitURL); err != nil {
				log.Printf("order consumer stopped: %v", err)
			}
		}()
	} else {
		log.Printf("order events disabled (RABBITMQ_URL not set)")
	}

	orch := orchestrator.New(gw, lg, orders, cfg.Currency, publish)

	e := echo.New()
	e.Use(echomw.Logger())  // request logging
	e.Use(echomw.Recover()) // panic recovery

	// Invoice constants are fixed except for the QR base URL, which
	// follows the configured public invoice location.
	invCfg := invoice.DefaultConfig()
	invCfg.QRBaseURL = cfg.InvoiceBaseURL

	router.RegisterRoutes(e)
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterCheckout(e, handler.NewOrderHandler(orch, invoice.NewAssembler(invCfg)), rl)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
