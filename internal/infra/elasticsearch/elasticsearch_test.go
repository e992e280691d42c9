package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"skymate/internal/config"
	"skymate/internal/model"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newFakeES(t *testing.T, searchResp string) (*Client, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = w.Write([]byte(searchResp))
		case r.Method == http.MethodHead && r.URL.Path == "/photos":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true,"result":"ok"}`))
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(&config.ElasticsearchConfig{Hosts: []string{srv.URL}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, &reqs
}

func TestNormalizeHosts(t *testing.T) {
	got := normalizeHosts([]string{" es:9200 ", "", "https://es2:9200"})
	if len(got) != 2 || got[0] != "http://es:9200" || got[1] != "https://es2:9200" {
		t.Fatalf("unexpected hosts %v", got)
	}
}

func TestNewRejectsEmptyHosts(t *testing.T) {
	if _, err := New(&config.ElasticsearchConfig{}); err == nil {
		t.Fatalf("expected error for empty hosts")
	}
}

func TestSyncPhotoAndUpdateLikes(t *testing.T) {
	c, reqs := newFakeES(t, `{}`)
	ctx := context.Background()

	loc := "Lisbon"
	p := &model.Photo{ID: 12, UserID: 3, Description: "tram", Location: &loc, LikesCount: 4,
		CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	if err := c.SyncPhoto(ctx, p); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := c.UpdateLikes(ctx, 12, 5); err != nil {
		t.Fatalf("update likes: %v", err)
	}
	if err := c.DeletePhoto(ctx, 12); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var sawIndex, sawUpdate, sawDelete bool
	for _, r := range *reqs {
		switch {
		case r.path == "/photos/_doc/12" && r.method == http.MethodPut:
			sawIndex = true
			var doc PhotoDoc
			if err := json.Unmarshal([]byte(r.body), &doc); err != nil {
				t.Fatalf("decode doc: %v", err)
			}
			if doc.Location != "Lisbon" || doc.LikesCount != 4 || doc.CreatedAt != "2026-05-01T10:00:00Z" {
				t.Fatalf("unexpected doc %+v", doc)
			}
		case r.path == "/photos/_update/12":
			sawUpdate = true
			if !strings.Contains(r.body, `"likes_count":5`) {
				t.Fatalf("unexpected update body %s", r.body)
			}
		case r.path == "/photos/_doc/12" && r.method == http.MethodDelete:
			sawDelete = true
		}
	}
	if !sawIndex || !sawUpdate || !sawDelete {
		t.Fatalf("missing requests: index=%v update=%v delete=%v (%v)", sawIndex, sawUpdate, sawDelete, *reqs)
	}
}

func TestSearchPhotoIDs(t *testing.T) {
	c, _ := newFakeES(t, `{"hits":{"total":{"value":7},"hits":[{"_source":{"id":5}},{"_source":{"id":2}}]}}`)

	ids, total, err := c.SearchPhotoIDs(context.Background(), map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 7 || len(ids) != 2 || ids[0] != 5 || ids[1] != 2 {
		t.Fatalf("unexpected result ids=%v total=%d", ids, total)
	}
}

func TestEnsurePhotosIndexCreates(t *testing.T) {
	c, reqs := newFakeES(t, `{}`)
	if err := c.EnsurePhotosIndex(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	var created bool
	for _, r := range *reqs {
		if r.method == http.MethodPut && r.path == "/photos" {
			created = strings.Contains(r.body, `"likes_count"`)
		}
	}
	if !created {
		t.Fatalf("expected index creation with mapping")
	}
}
