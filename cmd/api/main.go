package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"partsmarket/internal/config"
	"partsmarket/internal/db"
	"partsmarket/internal/httpserver"
	cartrepo "partsmarket/internal/repository/cart"
	orderrepo "partsmarket/internal/repository/order"
	productrepo "partsmarket/internal/repository/product"
	tokenrepo "partsmarket/internal/repository/token"
	userrepo "partsmarket/internal/repository/user"
	authsvc "partsmarket/internal/service/auth"
	cartsvc "partsmarket/internal/service/cart"
	catalogsvc "partsmarket/internal/service/catalog"
	ordersvc "partsmarket/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	tx := db.NewTransactor(dbpool)
	productRepo := productrepo.NewPostgres(logger)
	cartRepo := cartrepo.NewPostgres()
	orderRepo := orderrepo.NewPostgres(logger)
	userRepo := userrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	authService := authsvc.New(userRepo, tokenRepo)
	catalogService := catalogsvc.New(dbpool, productRepo)
	cartService := cartsvc.New(tx, dbpool, cartRepo, productRepo)
	orderService := ordersvc.New(tx, dbpool, orderRepo, cartRepo, productRepo, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:    authService,
		CartSvc:    cartService,
		OrderSvc:   orderService,
		CatalogSvc: catalogService,
	}, cfg.CORSOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
