package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skymate/internal/api/dto"
)

type stubSearcher struct {
	ids   []int64
	total int64
	err   error
	query map[string]interface{}
}

func (s *stubSearcher) SearchPhotoIDs(_ context.Context, query map[string]interface{}) ([]int64, int64, error) {
	s.query = query
	return s.ids, s.total, s.err
}

func TestSearchPhotosFromES(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := f.photo(t, 1, "alps sunrise", base, 0)
	b := f.photo(t, 1, "alps lake", base.Add(time.Hour), 0)

	// ES 相关度顺序与时间顺序相反，结果必须保持 ES 顺序
	searcher := &stubSearcher{ids: []int64{a.ID, 999, b.ID}, total: 3}
	svc := NewSearchService(searcher, f.photos, f.svc)

	data, err := svc.SearchPhotos(ctx, &dto.SearchPhotoRequest{Q: "alps"}, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if data.Source != searchSourceES {
		t.Fatalf("source = %q", data.Source)
	}
	if len(data.Photos) != 2 || data.Photos[0].ID != a.ID || data.Photos[1].ID != b.ID {
		t.Fatalf("photos = %+v", data.Photos)
	}
	if data.Page != 1 || data.PageSize != 20 || data.TotalPages != 1 {
		t.Fatalf("paging = %+v", data)
	}
	if searcher.query["size"] != 20 || searcher.query["from"] != 0 {
		t.Fatalf("query paging = %v / %v", searcher.query["from"], searcher.query["size"])
	}
}

func TestSearchPhotosFallsBackToDB(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	loc := "Patagonia"
	f.photo(t, 1, "glacier", base, 0)
	hit := f.photo(t, 1, "Torres at dawn", base.Add(time.Hour), 0)
	f.photo(t, 1, "city", base.Add(2*time.Hour), 0)
	if err := f.db.Model(hit).Update("location", loc).Error; err != nil {
		t.Fatalf("set location: %v", err)
	}

	tests := []struct {
		name     string
		searcher PhotoSearcher
	}{
		{name: "es error", searcher: &stubSearcher{err: errors.New("cluster red")}},
		{name: "es disabled", searcher: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSearchService(tt.searcher, f.photos, f.svc)
			data, err := svc.SearchPhotos(ctx, &dto.SearchPhotoRequest{Q: "patagonia", Page: 1, PageSize: 10}, nil)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if data.Source != searchSourceDB {
				t.Fatalf("source = %q", data.Source)
			}
			if data.Total != 1 || len(data.Photos) != 1 || data.Photos[0].ID != hit.ID {
				t.Fatalf("data = %+v", data)
			}
		})
	}
}

func TestSearchPhotosSortByLikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	popular := f.photo(t, 1, "beach one", base, 0)
	recent := f.photo(t, 1, "beach two", base.Add(time.Hour), 0)
	for _, user := range []int64{1, 2} {
		if _, err := f.svc.ToggleLike(ctx, popular.ID, user); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	svc := NewSearchService(nil, f.photos, f.svc)
	data, err := svc.SearchPhotos(ctx, &dto.SearchPhotoRequest{Q: "beach", Sort: "likes"}, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(data.Photos) != 2 || data.Photos[0].ID != popular.ID || data.Photos[1].ID != recent.ID {
		t.Fatalf("photos = %+v", data.Photos)
	}
	if data.Photos[0].Likes != 2 {
		t.Fatalf("likes = %d, want 2", data.Photos[0].Likes)
	}
}

func TestBuildESQuery(t *testing.T) {
	q := buildESQuery(&dto.SearchPhotoRequest{Q: "  ", Sort: "latest", Page: 3, PageSize: 10})
	if q["from"] != 20 || q["size"] != 10 {
		t.Fatalf("paging = %v / %v", q["from"], q["size"])
	}
	boolQ := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQ["must"].([]interface{})
	if _, ok := must[0].(map[string]interface{})["match_all"]; !ok {
		t.Fatalf("blank query should match all, got %v", must)
	}
	if sorts := q["sort"].([]interface{}); len(sorts) != 1 {
		t.Fatalf("latest sort = %v", sorts)
	}
}
