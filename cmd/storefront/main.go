package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/fjod/go_crafts/internal/blob"
	"github.com/fjod/go_crafts/internal/cache"
	"github.com/fjod/go_crafts/internal/catalog"
	"github.com/fjod/go_crafts/internal/config"
	storegrpc "github.com/fjod/go_crafts/internal/grpc"
	h "github.com/fjod/go_crafts/internal/http"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/fjod/go_crafts/internal/poller"
	"github.com/fjod/go_crafts/internal/publisher"
	"github.com/fjod/go_crafts/internal/repository"
	"github.com/fjod/go_crafts/internal/service"
	"github.com/fjod/go_crafts/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "handicraft marketplace catalog and storefront service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and the gRPC health endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-migrations", Usage: "do not apply index migrations on start"},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply MongoDB index migrations and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mongo-uri", EnvVars: []string{"MONGO_URI"}, Value: "mongodb://localhost:27017"},
					&cli.StringFlag{Name: "db", EnvVars: []string{"MONGO_DB_NAME"}, Value: "craftsdb"},
					&cli.StringFlag{Name: "path", EnvVars: []string{"MIGRATIONS_PATH"}, Value: "internal/repository/migrations"},
				},
				Action: migrateAction,
			},
			{
				Name:  "token",
				Usage: "issue a signed bearer token for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Required: true},
					&cli.StringFlag{Name: "user", Required: true},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
				},
				Action: func(c *cli.Context) error {
					token, err := h.IssueToken([]byte(c.String("secret")), c.String("user"), c.Duration("ttl"))
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, token)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront failed")
	}
}

func migrateAction(c *cli.Context) error {
	db, err := repository.ConnectMongoDB(c.Context, repository.DefaultMongoConfig(c.String("mongo-uri"), c.String("db")))
	if err != nil {
		return err
	}
	defer db.Client().Disconnect(context.Background())

	if err := repository.RunMigrations(db, c.String("path")); err != nil {
		return err
	}
	logrus.WithField("db", c.String("db")).Info("migrations applied")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, migrate bool) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := repository.ConnectMongoDB(ctx, repository.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		MinPoolSize:    cfg.MongoMinPoolSize,
		ConnectTimeout: cfg.MongoConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := repository.RunMigrations(db, cfg.MigrationsPath); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
	}
	log.WithField("db", cfg.MongoDBName).Info("connected to MongoDB")
	return repository.NewMongoStore(db), nil
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log, !c.Bool("skip-migrations"))
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	var artisanCache cache.ArtisanCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("Redis ping succeeded")
		artisanCache = cache.NewRedisCache(redisClient)
	}

	var events service.EventPublisher = publisher.Noop{}
	var cartCleaner *poller.Poller
	if len(cfg.KafkaBrokers) > 0 {
		orderEvents := publisher.NewOrderEvents(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		defer orderEvents.Close()
		events = orderEvents

		cartCleaner = poller.NewPoller(st, cfg.OrderEventsTopic, log.WithField("component", "poller"), cfg.KafkaBrokers...)
		defer cartCleaner.Close()
	}

	var blobs catalog.BlobResolver
	if cfg.BlobServiceURL != "" {
		blobs = blob.NewResolver(cfg.BlobServiceURL, cfg.BlobTimeout, log)
	}

	engine := catalog.NewEngine(st, blobs,
		catalog.WithArtisanCache(artisanCache),
		catalog.WithConcurrency(cfg.EnrichConcurrency),
		catalog.WithLogger(log),
	)
	orders := service.NewOrderService(st, events, cfg.EnrichConcurrency, log)
	timeout := cfg.RequestTimeout

	router := h.NewRouter(h.RouterConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Catalog:  h.NewCatalogHandler(engine, timeout, log),
		Cart:     h.NewCartHandler(service.NewCartService(st, log), engine, timeout, log),
		Wishlist: h.NewWishlistHandler(service.NewWishlistService(st), engine, timeout, log),
		Orders:   h.NewOrdersHandler(orders, engine, timeout, log),
		Seller:   h.NewSellerHandler(service.NewSellerService(st, artisanCache, log), orders, engine, timeout, log),
		Health:   st,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	checker := storegrpc.NewHealthChecker(st, cfg.HealthInterval, log)
	grpcServer := storegrpc.NewServer(checker)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("storefront HTTP API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("gRPC health endpoint listening on :%s", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		checker.Run(gctx)
		return nil
	})
	if cartCleaner != nil {
		g.Go(func() error {
			cartCleaner.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
