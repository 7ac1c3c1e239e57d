package cmd

import (
	"context"
	"fmt"

	"econsim/application"
	"econsim/config"
	"econsim/database"
	"econsim/domain/services"
	"econsim/events"
	"econsim/infrastructure/cache"
	"econsim/infrastructure/httpapi"
	"econsim/infrastructure/observability"
	"econsim/repository"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background workers and the status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}
}

// runtime holds the connections shared by every command
type runtime struct {
	db       *database.DB
	eventBus *events.Bus
	economy  *application.Economy
}

// openRuntime connects to the database and builds the economy
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	economy := application.NewEconomy(uowFactory, services.NewSystemRandom())

	return &runtime{db: db, eventBus: eventBus, economy: economy}, nil
}

func (r *runtime) Close() {
	r.db.Close()
}

// Run starts the workers and the status API and blocks until ctx is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting econsim...")
	cfg := config.Get()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	observability.RegisterSubscriptions(rt.eventBus)

	var prices httpapi.PriceReader
	if cfg.RedisAddr != "" {
		priceCache, err := cache.New(ctx, cache.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer priceCache.Close()

		application.RegisterApplicationSubscriptions(rt.eventBus, priceCache)
		prices = priceCache
		log.WithField("addr", cfg.RedisAddr).Info("Price cache enabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	stopWorkers := application.StartWorkers(gctx,
		application.NewMarketTickWorker(rt.economy),
		application.NewTaxWorker(rt.economy),
		application.NewParoleWorker(rt.economy),
	)
	defer stopWorkers()

	server := httpapi.New(rt.economy, prices)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.HTTPAddr)
	})

	log.Infof("econsim is running in %s mode", cfg.Environment)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("status server failed: %w", err)
	}

	log.Info("Shutting down econsim...")
	return nil
}
