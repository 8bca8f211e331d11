package main

import (
	"context"
	"eduforum/internal/cache"
	"eduforum/internal/config"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dev tool: seeds engagement scores into Redis so BALANCED breakout
// assignment has something to rank against during local testing.
func main() {
	count := flag.Int("count", 20, "number of synthetic users to score")
	seed := flag.Int64("seed", 42, "random seed for reproducible scores")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}

	scores := cache.NewScoreCache(rdb)
	rng := rand.New(rand.NewSource(*seed))

	for i := 0; i < *count; i++ {
		userID := fmt.Sprintf("user_%08d", i)
		score := 20 + rng.Float64()*80
		if err := scores.SetScore(ctx, userID, score); err != nil {
			log.Fatalf("Failed to seed score for %s: %v", userID, err)
		}
		fmt.Printf("%s -> %.1f\n", userID, score)
	}

	fmt.Printf("Seeded engagement scores for %d users\n", *count)
}
