package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hushimx/hostservice-cart/internal/cart"
	"github.com/hushimx/hostservice-cart/internal/cartstore"
	"github.com/hushimx/hostservice-cart/internal/checkout"
	"github.com/hushimx/hostservice-cart/internal/config"
	"github.com/hushimx/hostservice-cart/internal/db"
	"github.com/hushimx/hostservice-cart/internal/events"
	"github.com/hushimx/hostservice-cart/internal/httpapi"
	"github.com/hushimx/hostservice-cart/internal/orderapi"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg := config.Load()

	store, sequencer, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init cart store")
	}
	defer cleanup()

	orderClient, err := orderapi.NewClient(cfg.OrderAPIURL, cfg.OrderAPIToken, &http.Client{Timeout: cfg.SubmitTimeout})
	if err != nil {
		log.WithError(err).Fatal("init order api client")
	}

	var publisher checkout.EventsPublisher
	if cfg.RabbitURL != "" {
		conn, err := events.DialRabbit(cfg.RabbitURL)
		if err != nil {
			log.WithError(err).Fatal("connect rabbitmq")
		}
		defer conn.Close()

		pub, err := events.NewCartEventsPublisher(conn, sequencer)
		if err != nil {
			log.WithError(err).Fatal("create cart events publisher")
		}
		defer pub.Close()
		publisher = pub
	}

	sessions := httpapi.NewSessions(func() *httpapi.Session {
		svc := cart.NewService(store, log)
		return &httpapi.Session{
			Cart:     svc,
			Checkout: checkout.NewCoordinator(svc, orderClient, publisher, log, cfg.SubmitTimeout),
		}
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(sessions),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("cart-checkout-service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Fatal("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown")
	}
}

// buildStore wires the configured persistence backend plus the matching
// event sequencer (durable sequences only exist with Postgres).
func buildStore(cfg config.Config, log logrus.FieldLogger) (cart.Store, events.Sequencer, func(), error) {
	switch cfg.CartStore {
	case "postgres":
		if err := db.RunMigrations(cfg.CartDBDSN, log); err != nil {
			return nil, nil, nil, err
		}
		database, err := db.Open(cfg.CartDBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return cartstore.NewPostgres(database), events.NewSequenceRepository(database), func() { database.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := cartstore.NewRedis(client)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		return store, events.NewMemorySequencer(), func() { client.Close() }, nil

	default:
		log.Warn("using in-memory cart store, carts will not survive restarts")
		return cartstore.NewMemory(), events.NewMemorySequencer(), func() {}, nil
	}
}
