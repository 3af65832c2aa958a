//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "resto_scout/internal/adapters/http_server"
	redisad "resto_scout/internal/adapters/redis"
	"resto_scout/internal/app"
	"resto_scout/internal/domain"
	mysqlrepo "resto_scout/internal/storage/mysql"
)

// ---------- helpers ----------
func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestHTTP_EndToEnd_Place(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=resto",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "resto")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Seed the clean layer the way a cleaning run would. The review row
	// references the place only through its data_id, never its place_id.
	if err := repo.ReplaceCleanPlaces(ctx, []domain.CleanPlace{{
		PlaceID: "ChIJtonys", DataID: "0x880f:0xbeef",
		PlaceTitle: "Tony's", Rating: pfloat(4.6), ReviewsCount: 312,
		Cuisine: "Italian", PriceLevel: pfloat(2), Address: pstr("815 Noyes St"),
		Latitude: 41.0, Longitude: -87.0,
		DineIn: true, Takeout: true, HasReserveTable: true, ConvenienceScore: 3,
	}}); err != nil {
		t.Fatalf("ReplaceCleanPlaces: %v", err)
	}
	if err := repo.ReplaceCleanReviews(ctx, []domain.CleanReview{{
		PlaceDataID: pstr("0x880f:0xbeef"), ReviewerName: pstr("Ana"), ReviewRating: pfloat(5),
	}}); err != nil {
		t.Fatalf("ReplaceCleanReviews: %v", err)
	}

	// Real cache + real handlers on the real router.
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: q})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// Place by id
	res, err := http.Get(ts.URL + "/v1/places/ChIJtonys")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var place struct {
		PlaceID          string `json:"PlaceID"`
		Cuisine          string `json:"Cuisine"`
		ConvenienceScore int    `json:"ConvenienceScore"`
	}
	if err := json.NewDecoder(res.Body).Decode(&place); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if place.PlaceID != "ChIJtonys" || place.Cuisine != "Italian" || place.ConvenienceScore != 3 {
		t.Fatalf("unexpected body: %+v", place)
	}
	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	// Conditional re-request short-circuits.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/places/ChIJtonys", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("want 304, got %d", res2.StatusCode)
	}

	// Reviews
	res3, err := http.Get(ts.URL + "/v1/places/ChIJtonys/reviews")
	if err != nil {
		t.Fatalf("GET reviews: %v", err)
	}
	defer res3.Body.Close()
	var reviews []struct {
		ReviewerName *string `json:"ReviewerName"`
	}
	if err := json.NewDecoder(res3.Body).Decode(&reviews); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	if len(reviews) != 1 || reviews[0].ReviewerName == nil || *reviews[0].ReviewerName != "Ana" {
		t.Fatalf("unexpected reviews: %+v", reviews)
	}

	// Unknown id is a problem response.
	res4, err := http.Get(ts.URL + "/v1/places/nope")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	res4.Body.Close()
	if res4.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", res4.StatusCode)
	}
}
