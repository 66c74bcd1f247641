// Package mongo provides MongoDB connection management with
// environment-driven configuration, retrying initial connects and exposing
// a health check probe for readiness endpoints.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewDatabase(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection failures are wrapped in package errors so callers can use
// errors.Is to distinguish them from query errors.
package mongo
