package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/config"
	"github.com/Skotchmaster/shoe_store/internal/events"
	"github.com/Skotchmaster/shoe_store/internal/httpserver"
	"github.com/Skotchmaster/shoe_store/internal/media"
	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/payment"
	"github.com/Skotchmaster/shoe_store/internal/query"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/internal/search"
	"github.com/Skotchmaster/shoe_store/internal/service"
	pkgdb "github.com/Skotchmaster/shoe_store/pkg/db"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, pkgdb.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
		Silent: cfg.IsProduction(),
	})
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store, err := mediaStore(cfg)
	if err != nil {
		log.Fatalf("media: %v", err)
	}
	publisher, err := eventPublisher(cfg)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	index := productIndex(cfg, logger)

	r := repo.New(db)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn)
	images := media.Processor{MaxBytes: cfg.Media.MaxUploadBytes}
	lister := service.Lister{Query: query.Options{Strict: cfg.StrictFilters}}

	products := &service.ProductService{
		Lister: lister,
		Repo:   r,
		Media:  store,
		Images: images,
		Events: publisher,
	}
	if index != nil {
		products.Index = index
	}

	e := httpserver.New(logger, httpserver.Options{
		Production:     cfg.IsProduction(),
		CORSOrigins:    cfg.CORSOrigins,
		CSRF:           cfg.CSRFEnabled,
		MediaDir:       diskDir(cfg),
		MediaURL:       cfg.Media.BaseURL,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})
	httpserver.Register(e, &httpserver.Deps{
		DB:   db,
		Auth: authmw.New(&auth.Gate{Tokens: tokens, Users: r}),
		Users: &httpserver.UsersHTTP{
			Auth: &service.AuthService{
				Repo:         r,
				Tokens:       tokens,
				Events:       publisher,
				DefaultImage: cfg.Media.DefaultUserImage,
			},
			Users:         &service.UserService{Lister: lister, Repo: r, Media: store, Images: images},
			SecureCookies: cfg.IsProduction(),
		},
		Products: &httpserver.ProductsHTTP{Svc: products},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Checkout: &httpserver.CheckoutHTTP{Svc: &service.CheckoutService{
			Repo: r,
			Gateway: payment.NewStripeGateway(payment.StripeConfig{
				SecretKey:        cfg.Stripe.SecretKey,
				WebhookSecret:    cfg.Stripe.WebhookSecret,
				ShippingAmount:   cfg.Stripe.ShippingAmount,
				ShippingName:     cfg.Stripe.ShippingName,
				AllowedCountries: cfg.Stripe.AllowedCountries,
			}),
			Events:         publisher,
			ClientURL:      cfg.ClientURL,
			Currency:       cfg.Stripe.Currency,
			ShippingAmount: cfg.Stripe.ShippingAmount,
		}},
		Orders: &httpserver.OrdersHTTP{Svc: &service.OrderService{Lister: lister, Repo: r, Events: publisher}},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("events_close", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Warn("db_close", "error", err)
	}
	logger.Info("server_stopped")
}

func mediaStore(cfg *config.Config) (media.Store, error) {
	switch cfg.Media.Driver {
	case "cloudinary":
		return media.NewCloudinaryStore(cfg.Media.CloudinaryCloud, cfg.Media.CloudinaryKey, cfg.Media.CloudinarySecret)
	case "", "disk":
		return media.NewDiskStore(cfg.Media.Dir, cfg.Media.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported MEDIA_DRIVER %q", cfg.Media.Driver)
	}
}

func diskDir(cfg *config.Config) string {
	if cfg.Media.Driver == "cloudinary" {
		return ""
	}
	return cfg.Media.Dir
}

func eventPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "kafka":
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic), nil
	case "amqp":
		return events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPQueue)
	case "", "none":
		return events.Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported EVENTS_DRIVER %q", cfg.Events.Driver)
	}
}

// productIndex returns nil when Elasticsearch is not configured. An
// unreachable cluster is only logged; each search falls back to the database.
func productIndex(cfg *config.Config, logger *slog.Logger) *search.Index {
	if cfg.Search.ElasticURL == "" {
		return nil
	}
	es, err := search.NewClient(cfg.Search.ElasticURL, cfg.Search.ElasticUser, cfg.Search.ElasticPassword)
	if err != nil {
		logger.Warn("search_disabled", "error", err)
		return nil
	}
	idx := search.NewIndex(es, cfg.Search.Index)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := idx.Ping(ctx); err != nil {
		logger.Warn("search_unreachable", "url", cfg.Search.ElasticURL, "error", err)
	}
	return idx
}
