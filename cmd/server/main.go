package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/agent-chat/internal/agent"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/config"
	"github.com/suPer8Hu/agent-chat/internal/db"
	"github.com/suPer8Hu/agent-chat/internal/httpapi"
	"github.com/suPer8Hu/agent-chat/internal/store"
	"github.com/suPer8Hu/agent-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/agent-chat/internal/webhook"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := agent.DefaultCatalog(cfg.WebhookBaseURL)
	if cfg.AgentsFile != "" {
		var err error
		if catalog, err = agent.LoadCatalog(cfg.AgentsFile); err != nil {
			log.Fatalf("agents: %v", err)
		}
	}
	reg, err := agent.NewRegistry(catalog)
	if err != nil {
		log.Fatalf("agents: %v", err)
	}

	kv := store.MustOpen(ctx, cfg)
	defer kv.Close()

	opts := []chat.LedgerOption{
		chat.WithHistoryKey(cfg.HistoryKey),
		chat.WithMaxRecords(cfg.HistoryMax),
	}

	// archive is read here; with a broker the worker writes it, without one the ledger does
	var archive *chat.Repo
	if cfg.ArchiveEnabled {
		gdb, err := db.Connect(cfg.DBDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		archive = chat.NewRepo(gdb)
		if err := archive.Migrate(ctx); err != nil {
			log.Fatalf("automigrate: %v", err)
		}
	}
	switch {
	case cfg.RabbitURL != "":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbit publisher: %v", err)
		}
		defer pub.Close()
		opts = append(opts, chat.WithNotifier(pub))
		log.Printf("[Server] publishing history events queue=%s", cfg.RabbitQueue)
	case archive != nil:
		opts = append(opts, chat.WithNotifier(archive))
		log.Printf("[Server] archiving history inline")
	}

	ledger := chat.NewLedger(kv, opts...)
	if err := ledger.Load(ctx); err != nil {
		log.Fatalf("load history: %v", err)
	}

	client := webhook.NewClient(time.Duration(cfg.WebhookTimeoutSeconds) * time.Second)
	svc := chat.NewService(reg, ledger, client)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(cfg, svc, archive),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server started, addr=%s agents=%d history=%d store=%s", cfg.HTTPAddr, len(reg.List()), ledger.Len(), cfg.HistoryStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
