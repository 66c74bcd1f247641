package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/cardbuddy/cardbuddy/internal/auth"
	"github.com/cardbuddy/cardbuddy/internal/entitlement"
	"github.com/cardbuddy/cardbuddy/internal/flashcard"
	"github.com/cardbuddy/cardbuddy/internal/httpapi"
	"github.com/cardbuddy/cardbuddy/pkg/config"
	"github.com/cardbuddy/cardbuddy/pkg/httpserver"
	"github.com/cardbuddy/cardbuddy/pkg/logger"
	"github.com/cardbuddy/cardbuddy/pkg/mongo"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(logger.Component("server")))

	if err := run(context.Background(), log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		mongoCfg  mongo.Config
		authCfg   auth.Config
		stripeCfg entitlement.StripeConfig
		entCfg    entitlement.Config
		apiCfg    httpapi.Config
		srvCfg    httpserver.Config
	)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&entCfg)
	config.MustLoad(&apiCfg)
	config.MustLoad(&srvCfg)

	db, err := mongo.NewDatabase(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer db.Client().Disconnect(context.Background())

	verifier, err := auth.NewOIDCVerifier(ctx, authCfg)
	if err != nil {
		return err
	}

	provider, err := entitlement.NewStripeProvider(stripeCfg)
	if err != nil {
		return err
	}

	entitlements := entitlement.NewService(entitlement.NewMongoStore(db), provider, entCfg, log)
	flashcards := flashcard.NewService(flashcard.NewMongoStore(db), flashcard.NewSentenceGenerator(), log)

	router := httpapi.NewRouter(httpapi.Deps{
		Entitlement: entitlements,
		Flashcards:  flashcards,
		Verifier:    verifier,
		ReadyProbes: []func(context.Context) error{mongo.Healthcheck(db.Client())},
		Config:      apiCfg,
		Log:         log,
	})

	srv := httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}
