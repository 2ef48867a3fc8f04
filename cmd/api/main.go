package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell.org/internal/content"
	"inkwell.org/internal/engagement"
	"inkwell.org/internal/httpapi"
	"inkwell.org/internal/identity"
	"inkwell.org/internal/obs"
	"inkwell.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("INKWELL_PG_DSN")
	if dsn == "" {
		log.Fatal("missing INKWELL_PG_DSN")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	identitySvc, err := identity.NewService(store,
		identity.WithTokenSecrets(
			os.Getenv("INKWELL_JWT_ACCESS_SECRET"),
			os.Getenv("INKWELL_JWT_REFRESH_SECRET"),
		),
	)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	sanitizer := content.NewSanitizer()
	contentSvc, err := content.NewService(store, sanitizer)
	if err != nil {
		log.Fatalf("content service: %v", err)
	}
	engagementSvc, err := engagement.NewService(store, sanitizer)
	if err != nil {
		log.Fatalf("engagement service: %v", err)
	}

	api := httpapi.New(identitySvc, contentSvc, engagementSvc,
		httpapi.ReadyProbe{DB: store.DB()}, version)

	addr := os.Getenv("INKWELL_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting inkwell-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
