// Command credvault-loadtest drives concurrent refresh rotations and blocklist
// lookups against the Redis store. Without -redis-addr or REDIS_ADDR it starts an
// in-process miniredis.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"math"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/refresh"
	"github.com/MrEthical07/credvault/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type recordState struct {
	subjectID string
	secret    string
	mu        sync.Mutex
}

func main() {
	var (
		records     = flag.Int("records", 100000, "number of refresh records to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (blocklist lookup + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "cvload", "key prefix")
	)
	flag.Parse()

	if *records <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "records, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := redisstore.New(client, redisstore.Options{Prefix: *prefix})
	blocklist := store.Blocklist()

	states := make([]recordState, *records)
	fmt.Printf("seeding %d refresh records...\n", *records)
	startSeed := time.Now()
	for i := range states {
		states[i].subjectID = fmt.Sprintf("subject-%d", i)
		secret, err := seed(ctx, store, states[i].subjectID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		states[i].secret = secret
		if i%10 == 0 {
			if err := blocklist.Insert(ctx, fmt.Sprintf("jti-%d", i), time.Now().Add(time.Hour)); err != nil {
				fmt.Fprintf(os.Stderr, "blocklist insert failed: %v\n", err)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookupStats := runLookupPhase(ctx, blocklist, len(states), *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, store, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("blocklist", lookupStats)
	printStats("rotate", rotateStats)
}

func seed(ctx context.Context, store *redisstore.Store, subjectID string) (string, error) {
	secret, err := refresh.NewSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	err = store.Insert(ctx, lifecycle.RefreshRecord{
		ID:         uuid.NewString(),
		SecretHash: refresh.Hash(secret),
		SubjectID:  subjectID,
		ExpiresAt:  now.Add(24 * time.Hour),
		CreatedAt:  now,
	})
	return secret, err
}

func runLookupPhase(ctx context.Context, blocklist lifecycle.AccessTokenBlocklist, n, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				jti := fmt.Sprintf("jti-%d", r.Intn(n))
				t0 := time.Now()
				_, err := blocklist.Contains(ctx, jti, t0)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRotatePhase consumes the current secret of a random record and inserts its
// successor, the same two store calls a refresh makes.
func runRotatePhase(ctx context.Context, store *redisstore.Store, states []recordState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				_, err := store.ConsumeActive(ctx, refresh.Hash(state.secret), t0)
				var next string
				if err == nil {
					next, err = seed(ctx, store, state.subjectID)
				}
				d := time.Since(t0)
				if err == nil {
					state.secret = next
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	elapsed  time.Duration
	samples  []time.Duration
	failures int64
}

func computeStats(elapsed time.Duration, samples []time.Duration, failures int64) phaseStats {
	slices.Sort(samples)
	return phaseStats{elapsed: elapsed, samples: samples, failures: failures}
}

// quantile expects sorted samples.
func (s phaseStats) quantile(q float64) time.Duration {
	if len(s.samples) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(s.samples)))) - 1
	return s.samples[min(max(idx, 0), len(s.samples)-1)]
}

func printStats(name string, s phaseStats) {
	var throughput float64
	if s.elapsed > 0 {
		throughput = float64(len(s.samples)) / s.elapsed.Seconds()
	}
	fmt.Printf("%-10s ops=%-8d failures=%-6d elapsed=%-10s ops/sec=%-8.0f p50=%s p95=%s p99=%s\n",
		name,
		len(s.samples),
		s.failures,
		s.elapsed.Round(time.Millisecond),
		throughput,
		s.quantile(0.50).Round(time.Microsecond),
		s.quantile(0.95).Round(time.Microsecond),
		s.quantile(0.99).Round(time.Microsecond),
	)
}
