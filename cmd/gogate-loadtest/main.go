package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		identities  = flag.Int("identities", 10000, "number of distinct client identifiers")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (check-limit + mfa)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		memory      = flag.Bool("memory", false, "use in-process stores instead of redis")
		prefix      = flag.String("prefix", "gglt", "redis key prefix")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := goGate.DefaultConfig()
	cfg.Store.RedisPrefix = *prefix
	cfg.RateLimit.Policies[goGate.EndpointAPI] = goGate.RateLimitPolicy{
		Window:      time.Minute,
		MaxRequests: 50,
	}
	builder := goGate.New().
		WithConfig(cfg).
		WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	if !*memory {
		client, cleanup, err := connect(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis setup failed: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		builder = builder.WithRedis(client)
	} else {
		fmt.Println("using in-process stores")
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	var denied int64
	limitStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		id := "client-" + strconv.Itoa(r.Intn(*identities))
		res, err := engine.CheckLimit(ctx, goGate.EndpointAPI, id)
		if err == nil && !res.Allowed {
			atomic.AddInt64(&denied, 1)
		}
		return err
	})

	mfaStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		sid, err := engine.InitiateMFA(ctx, "user-"+strconv.Itoa(r.Intn(*identities)), goGate.MFAMethodTOTP)
		if err != nil {
			return err
		}
		code := "123456"
		if i%4 == 0 {
			code = "bad"
		}
		_, err = engine.VerifyMFAWithResult(ctx, sid, code)
		if errors.Is(err, goGate.ErrMFACodeInvalid) {
			return nil
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("check-limit", limitStats)
	fmt.Printf("check-limit: denied=%d\n", denied)
	printStats("mfa", mfaStats)

	if stats, err := engine.MFAStats(ctx); err == nil {
		fmt.Printf("mfa sessions: total=%d verified=%d pending=%d\n",
			stats.Total, stats.ByStatus[goGate.MFAVerified], stats.ByStatus[goGate.MFAPending])
	}
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
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
				t0 := time.Now()
				err := op(r, i)
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

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
