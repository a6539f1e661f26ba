package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/taxi-dispatch/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_rides_consumed_total",
		Help: "Total ride-log events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_rides_invalid_total",
		Help: "Total invalid ride-log events received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis stat updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{"localhost:9092"}
	if brokersEnv != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "ride-log"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "taxi-dispatch-stats"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr})
	radapter := &redisAdapter{c: rc}

	// metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var e models.LogEntry
		if err := json.Unmarshal(m.Value, &e); err != nil {
			msgsInvalid.Inc()
			log.Printf("invalid ride event: %v", err)
			continue
		}

		if err := foldStatsWithRetry(ctx, radapter, &e, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis stats update failed for ride=%s: %v", e.ID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// StatsUpdater defines the small subset of redis operations we need for
// tests and production.
type StatsUpdater interface {
	IncrBy(ctx context.Context, key string, value int64) error
	HIncrBy(ctx context.Context, key, field string, value int64) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) IncrBy(ctx context.Context, key string, value int64) error {
	return r.c.IncrBy(ctx, key, value).Err()
}

func (r *redisAdapter) HIncrBy(ctx context.Context, key, field string, value int64) error {
	return r.c.HIncrBy(ctx, key, field, value).Err()
}

// foldStatsWithRetry folds one ride into the daily revenue counter and the
// per-vehicle ride count, with retry/backoff on redis errors. Increments are
// not idempotent, so an update that already landed is never re-run: each
// counter moves exactly once per ride.
func foldStatsWithRetry(ctx context.Context, rc StatsUpdater, e *models.LogEntry, attempts int, delay time.Duration) error {
	day := e.CreatedAt.UTC().Format("2006-01-02")
	revenueDone := false
	for i := 0; i < attempts; i++ {
		if !revenueDone {
			if err := rc.IncrBy(ctx, "stats:revenue:"+day, int64(e.Price)); err != nil {
				if i == attempts-1 {
					return err
				}
				time.Sleep(delay)
				delay *= 2
				continue
			}
			revenueDone = true
		}
		if err := rc.HIncrBy(ctx, "stats:rides:"+day, e.VehicleID, 1); err != nil {
			if i == attempts-1 {
				return err
			}
			time.Sleep(delay)
			delay *= 2
			continue
		}
		return nil
	}
	return nil
}
