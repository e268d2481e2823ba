package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/daybreak-app/daybreak/internal/database"
	"github.com/daybreak-app/daybreak/internal/news"
	"github.com/daybreak-app/daybreak/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newProvider returns an httptest server answering newsdata-shaped queries
// with the given handler, and a news.Service pointed at it.
func newProvider(t *testing.T, handler http.HandlerFunc) *news.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return news.NewService(news.Config{APIKey: "test-key"}, news.WithBaseURL(server.URL))
}

func setupBuilder(t *testing.T, svc *news.Service) (*Builder, *store.PreferenceStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cs := store.NewCredentialStore(db)
	if err := cs.Create("alice@example.com", "hunter2"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	ps := store.NewPreferenceStore(db)
	ds := store.NewDigestStore(db)
	return NewBuilder(ps, ds, svc, discardLogger()), ps
}

func articlesJSON(topic string, n int) string {
	out := `{"status":"success","results":[`
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"title":"%s story %d","description":"about %s","image_url":"","link":"https://news.example/%s/%d"}`, topic, i, topic, topic, i)
	}
	return out + `]}`
}

func TestRebuildSingleTopicCapsAtThree(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlesJSON(r.URL.Query().Get("q"), 5)))
	})
	b, ps := setupBuilder(t, svc)

	if _, err := ps.Upsert("alice@example.com", []string{"sports"}); err != nil {
		t.Fatalf("seed preferences: %v", err)
	}

	d, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(d.Articles) != 3 {
		t.Fatalf("len(articles) = %d, want 3", len(d.Articles))
	}
	for _, a := range d.Articles {
		if a.Description != "about sports" {
			t.Errorf("article %+v not sourced from sports query", a)
		}
	}
}

func TestRebuildNoPreferences(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","results":[]}`))
	})
	b, _ := setupBuilder(t, svc)

	_, err := b.Rebuild(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrNoPreferences) {
		t.Errorf("err = %v, want ErrNoPreferences", err)
	}
}

func TestRebuildEmptyProviderResults(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","results":[]}`))
	})
	b, ps := setupBuilder(t, svc)

	ps.Upsert("alice@example.com", []string{"sports"})

	d, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(d.Articles) != 0 {
		t.Errorf("len(articles) = %d, want 0 (empty digest, not a failure)", len(d.Articles))
	}
}

func TestRebuildCatalogOrder(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlesJSON(r.URL.Query().Get("q"), 1)))
	})
	b, ps := setupBuilder(t, svc)

	// Request order differs from catalog order.
	ps.Upsert("alice@example.com", []string{"entertainment", "sports", "health"})

	d, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	var titles []string
	for _, a := range d.Articles {
		titles = append(titles, a.Title)
	}
	want := []string{"sports story 0", "health story 0", "entertainment story 0"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want catalog order %v", titles, want)
	}
}

func TestRebuildToleratesFailingTopic(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "health" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(articlesJSON(r.URL.Query().Get("q"), 2)))
	})
	b, ps := setupBuilder(t, svc)

	ps.Upsert("alice@example.com", []string{"sports", "health"})

	d, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	// health contributes zero articles, sports is unaffected.
	if len(d.Articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(d.Articles))
	}
	for _, a := range d.Articles {
		if a.Description != "about sports" {
			t.Errorf("article %+v, want only sports articles", a)
		}
	}
}

func TestRebuildAppliesPlaceholders(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","results":[{"title":"","description":"","image_url":"","link":""}]}`))
	})
	b, ps := setupBuilder(t, svc)

	ps.Upsert("alice@example.com", []string{"technology"})

	d, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(d.Articles) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(d.Articles))
	}
	a := d.Articles[0]
	if a.Title != "No title" {
		t.Errorf("title = %q, want placeholder", a.Title)
	}
	if a.Description != "No description available" {
		t.Errorf("description = %q, want placeholder", a.Description)
	}
	if a.ImageURL != "" {
		t.Errorf("image_url = %q, want empty", a.ImageURL)
	}
	if a.Link != "#" {
		t.Errorf("link = %q, want %q", a.Link, "#")
	}
}

func TestGetCachedReturnsLastRebuild(t *testing.T) {
	calls := 0
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(articlesJSON(r.URL.Query().Get("q"), 2)))
	})
	b, ps := setupBuilder(t, svc)

	ps.Upsert("alice@example.com", []string{"business"})

	built, err := b.Rebuild(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	providerCalls := calls

	cached, err := b.GetCached("alice@example.com")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if calls != providerCalls {
		t.Error("GetCached must not query the provider")
	}
	if !reflect.DeepEqual(cached.Articles, built.Articles) {
		t.Errorf("cached articles = %+v, want %+v", cached.Articles, built.Articles)
	}
}

func TestGetCachedMissing(t *testing.T) {
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","results":[]}`))
	})
	b, _ := setupBuilder(t, svc)

	_, err := b.GetCached("alice@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRebuildOverwritesCachedDigest(t *testing.T) {
	topicResults := map[string]int{"sports": 2}
	svc := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.Write([]byte(articlesJSON(q, topicResults[q])))
	})
	b, ps := setupBuilder(t, svc)

	ps.Upsert("alice@example.com", []string{"sports"})
	if _, err := b.Rebuild(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}

	topicResults["sports"] = 1
	if _, err := b.Rebuild(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	cached, err := b.GetCached("alice@example.com")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if len(cached.Articles) != 1 {
		t.Errorf("len(cached) = %d, want 1 (replacement, not append)", len(cached.Articles))
	}
}
