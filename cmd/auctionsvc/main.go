package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkrupp/carauction/internal/infra/config"
	"github.com/mkrupp/carauction/internal/infra/logging"
	"github.com/mkrupp/carauction/internal/infra/transport/http"
	"github.com/mkrupp/carauction/internal/repo/auction"
	"github.com/mkrupp/carauction/internal/repo/bidder"
	"github.com/mkrupp/carauction/internal/repo/vehicle"
	"github.com/mkrupp/carauction/internal/svc/auctionsvc"
)

const (
	appName = "carauction"
	svcName = "auctionsvc"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig           `envPrefix:"LOG_"`
	HTTP  auctionsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	Store StoreConfig                    `envPrefix:"STORE_"`
}

// StoreConfig selects the persistence backend shared by all repositories.
type StoreConfig struct {
	// Backend is either "memory" or "sqlite"
	Backend string `env:"BACKEND" default:"memory"`

	Vehicle vehicle.SQLiteRepositoryConfig `envPrefix:""`
	Auction auction.SQLiteRepositoryConfig `envPrefix:""`
	Bidder  bidder.SQLiteRepositoryConfig  `envPrefix:""`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.auctionsvc")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	vehicleFactory, auctionFactory, bidderFactory, err := repositoryFactories(cfg.Store)
	if err != nil {
		return fmt.Errorf("select store backend: %w", err)
	}

	vehicleRepo, err := vehicleFactory()
	if err != nil {
		return fmt.Errorf("new vehicle repository: %w", err)
	}
	defer vehicleRepo.Close()

	auctionRepo, err := auctionFactory()
	if err != nil {
		return fmt.Errorf("new auction repository: %w", err)
	}
	defer auctionRepo.Close()

	bidderRepo, err := bidderFactory()
	if err != nil {
		return fmt.Errorf("new bidder repository: %w", err)
	}
	defer bidderRepo.Close()

	httpTransport := auctionsvc.NewHTTPTransport(
		auctionsvc.NewVehicleService(vehicleRepo, auctionRepo),
		auctionsvc.NewAuctionService(auctionRepo, vehicleRepo, bidderRepo),
		auctionsvc.NewBidderService(bidderRepo, auctionRepo),
		cfg.HTTP,
	)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func repositoryFactories(cfg StoreConfig) (
	vehicle.RepositoryFactory,
	auction.RepositoryFactory,
	bidder.RepositoryFactory,
	error,
) {
	switch cfg.Backend {
	case "memory":
		return vehicle.MemoryRepositoryFactory(),
			auction.MemoryRepositoryFactory(),
			bidder.MemoryRepositoryFactory(),
			nil
	case "sqlite":
		return vehicle.SQLiteRepositoryFactory(cfg.Vehicle),
			auction.SQLiteRepositoryFactory(cfg.Auction),
			bidder.SQLiteRepositoryFactory(cfg.Bidder),
			nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
