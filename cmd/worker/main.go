package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/config"
	"github.com/suPer8Hu/agent-chat/internal/db"
	"github.com/suPer8Hu/agent-chat/internal/store/rabbitmq"
)

// worker mirrors history events into the conversation archive.
func main() {
	cfg := config.Load()
	if cfg.RabbitURL == "" {
		log.Fatalf("RABBIT_URL is required")
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	repo := chat.NewRepo(gdb)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retries := rabbitmq.NewRetrier(ch, cfg.RabbitQueue, cfg.WorkerMaxRetries, time.Duration(cfg.WorkerRetryDelaySeconds)*time.Second)

	log.Printf("worker started, queue=%s concurrency=%d max_retries=%d", cfg.RabbitQueue, concurrency, cfg.WorkerMaxRetries)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(ctx, repo, retries, workerID, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

type applier interface {
	Apply(ctx context.Context, ev chat.HistoryEvent) error
}

type retrier interface {
	Retry(ctx context.Context, d amqp.Delivery) (bool, error)
}

// With more than one worker, two upserts of the same record may apply out of order.
// WORKER_CONCURRENCY=1 keeps the archive in publish order.
func handleDelivery(ctx context.Context, repo applier, retries retrier, workerID int, d amqp.Delivery) {
	ev, err := rabbitmq.DecodeEvent(d.Body)
	if err != nil {
		log.Printf("worker=%d bad message: %v", workerID, err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := repo.Apply(ctx, ev); err != nil {
		log.Printf("worker=%d event %s record=%s failed cost=%s err=%v", workerID, ev.Type, ev.RecordID, time.Since(start), err)
		// shutdown, not a bad event: let the broker redeliver
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			_ = d.Nack(false, true)
			return
		}
		retried, rerr := retries.Retry(ctx, d)
		switch {
		case rerr != nil:
			log.Printf("worker=%d retry publish failed record=%s err=%v", workerID, ev.RecordID, rerr)
			_ = d.Nack(false, true)
		case retried:
			_ = d.Ack(false)
		default:
			log.Printf("worker=%d retries exhausted, dead-lettering record=%s attempts=%d", workerID, ev.RecordID, rabbitmq.RetryCount(d.Headers))
			_ = d.Nack(false, false)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Printf("worker=%d ack failed record=%s err=%v", workerID, ev.RecordID, err)
	}
	if cost := time.Since(start); cost > 500*time.Millisecond {
		log.Printf("event_timing type=%s record=%s cost=%s", ev.Type, ev.RecordID, cost)
	}
}
