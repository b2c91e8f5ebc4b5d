package rabbitmq

import (
	"context"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const retryCountHeader = "x-retry-count"

// channelPublisher is the part of *amqp.Channel the retrier needs.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Retrier parks failed deliveries on the retry queue. The queue's per-message TTL
// dead-letters them back to the main queue after Delay.
type Retrier struct {
	queue      string
	maxRetries int
	delay      time.Duration

	mu sync.Mutex // shared channel, many workers
	ch channelPublisher
}

func NewRetrier(ch channelPublisher, queue string, maxRetries int, delay time.Duration) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Retrier{ch: ch, queue: queue, maxRetries: maxRetries, delay: delay}
}

// Retry republishes d to the retry queue with its attempt count bumped. It reports false
// once the attempts are used up; the caller then dead-letters the delivery.
func (r *Retrier) Retry(ctx context.Context, d amqp.Delivery) (bool, error) {
	attempt := RetryCount(d.Headers)
	if attempt >= r.maxRetries {
		return false, nil
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(attempt + 1)

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.ch.PublishWithContext(cctx,
		"",
		RetryQueue(r.queue),
		false,
		false,
		amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			Type:         d.Type,
			Headers:      headers,
			Body:         d.Body,
			Timestamp:    d.Timestamp,
			Expiration:   strconv.FormatInt(r.delay.Milliseconds(), 10),
		},
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RetryCount reads the attempt counter; brokers and clients may hand it back as any int width.
func RetryCount(h amqp.Table) int {
	switch v := h[retryCountHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
