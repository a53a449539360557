package server

import (
	"context"
	"time"

	"github.com/herbveda/storefront/app/routes"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/mongodb"
	"github.com/herbveda/storefront/pkg/router"
)

// RouteTable builds the full router and returns its name → path table.
// Controllers are constructed against the live database handle, so this
// needs a reachable Mongo instance just like serve does.
func RouteTable() (map[string]string, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongodb.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongodb.Close(closeCtx)
	}()

	r := router.New()
	routes.RegisterAPI(r, mongodb.DB())
	return r.Routes(), nil
}
