// Command seeder is a development tool that fills the progress collection
// with randomized player documents, exposed over a small HTTP endpoint so
// load can be generated repeatedly while other services stay up.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"gameapi/pkg/store"
)

func main() {
	addr := flag.String("addr", ":8082", "HTTP server address")
	uri := flag.String("uri", "mongodb://localhost:27017", "MongoDB URI")
	dbName := flag.String("db", "meu_jovinho_db", "Database name")
	collName := flag.String("coll", "game_data", "Collection name")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:            *uri,
		Database:       *dbName,
		Collection:     *collName,
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer st.Close(context.Background())

	http.HandleFunc("/seed", func(w http.ResponseWriter, r *http.Request) {
		count := 10
		if raw := r.URL.Query().Get("count"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				http.Error(w, "count must be a positive integer", http.StatusBadRequest)
				return
			}
			count = parsed
		}

		inserted := 0
		for i := 0; i < count; i++ {
			if _, err := st.Upsert(r.Context(), randomPlayer()); err != nil {
				http.Error(w, fmt.Sprintf("upsert failed: %v", err), http.StatusInternalServerError)
				return
			}
			inserted++
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"inserted": inserted})
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: *addr}

	go func() {
		log.Printf("seeder listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down seeder server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	server.Shutdown(shutdownCtx)
}

func randomPlayer() store.PlayerProgress {
	now := time.Now().UTC()
	maxLevel := rand.Intn(50) + 1
	return store.PlayerProgress{
		PlayerID:       fmt.Sprintf("seed-player-%06d", rand.Intn(1_000_000)),
		CurrentLevel:   rand.Intn(maxLevel) + 1,
		MaxLevel:       maxLevel,
		TotalScore:     int64(rand.Intn(100_000)),
		ItemsCollected: int64(rand.Intn(5_000)),
		GamesPlayed:    int64(rand.Intn(500) + 1),
		LastPlayed:     &now,
	}
}
