package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ssp-platform/ssp/internal/api"
	"github.com/ssp-platform/ssp/internal/db"
	"github.com/ssp-platform/ssp/internal/middleware"
	"github.com/ssp-platform/ssp/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	addr := utils.SafeEnv("SSP_ADDR", ":8080")
	commit := os.Getenv("SSP_COMMIT")
	buildTime := os.Getenv("SSP_BUILD_TIME")

	store := openStore()

	mux := http.NewServeMux()
	api.NewRouter(store).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "SSP API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Serve the built frontend when SSP_STATIC_DIR points at it.
	if staticDir := os.Getenv("SSP_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("SSP server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks SQLite when SSP_SQLITE_PATH is set, the in-memory store
// otherwise. Migrations run on every start.
func openStore() api.Store {
	path := os.Getenv("SSP_SQLITE_PATH")
	if path == "" {
		log.Printf("SSP_SQLITE_PATH not set, using in-memory store")
		return api.NewMemoryStore()
	}
	conn, err := db.Open(path)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	if err := db.RunMigrations(conn, os.Getenv("SSP_MIGRATIONS_DIR")); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	store, err := db.NewStore(conn)
	if err != nil {
		log.Fatalf("sqlite store: %v", err)
	}
	return store
}
