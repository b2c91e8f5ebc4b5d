package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Agents
	AgentsFile            string
	WebhookBaseURL        string
	WebhookTimeoutSeconds int

	// History substrate: memory | sql | redis | badger | bolt
	HistoryStore string
	HistoryKey   string
	HistoryMax   int

	DBDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerDir     string
	BoltPath      string

	// rabbitMQ history feed + archive worker
	RabbitURL         string
	RabbitQueue       string
	ArchiveEnabled    bool
	WorkerConcurrency int
	// failed archive writes are parked on <queue>.retry this many times before the DLQ
	WorkerMaxRetries        int
	WorkerRetryDelaySeconds int
}

func Load() Config {
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	webhookBase := os.Getenv("WEBHOOK_BASE_URL")
	if webhookBase == "" {
		webhookBase = "http://localhost:5678"
	}

	// 0 = no client timeout; the request context decides
	webhookTimeout := 0
	if v := os.Getenv("WEBHOOK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			webhookTimeout = n
		}
	}

	historyStore := strings.ToLower(strings.TrimSpace(os.Getenv("HISTORY_STORE")))
	if historyStore == "" {
		historyStore = "bolt"
	}
	historyKey := os.Getenv("HISTORY_KEY")
	if historyKey == "" {
		historyKey = "chatHistory"
	}
	historyMax := 50
	if v := os.Getenv("HISTORY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			historyMax = n
		}
	}

	// DSN demo:
	// sqlite:agentchat.db
	// app:apppass@tcp(127.0.0.1:3306)/agent_chat?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "sqlite:agentchat.db"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	badgerDir := os.Getenv("BADGER_DIR")
	if badgerDir == "" {
		badgerDir = "data/badger"
	}
	boltPath := os.Getenv("BOLT_PATH")
	if boltPath == "" {
		boltPath = "data/history.bolt"
	}

	rabbitURL := os.Getenv("RABBIT_URL")
	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_history_events"
	}

	concurrency := 2
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = n
		}
	}
	if concurrency > 50 {
		concurrency = 50
	}

	maxRetries := 5
	if v := os.Getenv("WORKER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxRetries = n
		}
	}
	retryDelay := 5
	if v := os.Getenv("WORKER_RETRY_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retryDelay = n
		}
	}

	archive := false
	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		archive, _ = strconv.ParseBool(v)
	}

	return Config{
		HTTPAddr:           httpAddr,
		CORSAllowedOrigins: origins,

		AgentsFile:            os.Getenv("AGENTS_FILE"),
		WebhookBaseURL:        strings.TrimRight(webhookBase, "/"),
		WebhookTimeoutSeconds: webhookTimeout,

		HistoryStore: historyStore,
		HistoryKey:   historyKey,
		HistoryMax:   historyMax,

		DBDSN:         dsn,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		BadgerDir:     badgerDir,
		BoltPath:      boltPath,

		RabbitURL:         rabbitURL,
		RabbitQueue:       rabbitQueue,
		ArchiveEnabled:    archive,
		WorkerConcurrency: concurrency,

		WorkerMaxRetries:        maxRetries,
		WorkerRetryDelaySeconds: retryDelay,
	}
}
