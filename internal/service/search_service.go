package service

import (
	"context"
	"strings"
	"time"

	"skymate/internal/api/dto"
	"skymate/internal/model"
	"skymate/pkg/logger"

	"go.uber.org/zap"
)

const (
	searchSourceES = "elasticsearch"
	searchSourceDB = "database"
)

// PhotoSearcher 全文检索后端
type PhotoSearcher interface {
	SearchPhotoIDs(ctx context.Context, query map[string]interface{}) ([]int64, int64, error)
}

// PhotoFinder 数据库侧的照片查询
type PhotoFinder interface {
	GetByIDs(ctx context.Context, ids []int64) ([]model.Photo, error)
	Search(ctx context.Context, q string, sort string, skip, limit int) ([]model.Photo, int64, error)
}

type SearchService struct {
	searcher    PhotoSearcher
	finder      PhotoFinder
	likeService *LikeService
}

// NewSearchService searcher 为 nil 时直接走数据库
func NewSearchService(searcher PhotoSearcher, finder PhotoFinder, likeService *LikeService) *SearchService {
	return &SearchService{searcher: searcher, finder: finder, likeService: likeService}
}

// SearchPhotos 搜索照片（ES 优先，失败则降级到 DB）
func (s *SearchService) SearchPhotos(ctx context.Context, req *dto.SearchPhotoRequest, viewerID *int64) (*dto.SearchPhotoData, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	if s.searcher != nil {
		data, err := s.searchFromES(ctx, req, viewerID)
		if err == nil {
			return data, nil
		}
		logger.Warn("ES search failed, fallback to DB", zap.Error(err))
	}
	return s.searchFromDB(ctx, req, viewerID)
}

func (s *SearchService) searchFromES(ctx context.Context, req *dto.SearchPhotoRequest, viewerID *int64) (*dto.SearchPhotoData, error) {
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ids, total, err := s.searcher.SearchPhotoIDs(sctx, buildESQuery(req))
	if err != nil {
		return nil, err
	}

	photos, err := s.finder.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 保持 ES 的相关度顺序
	photoMap := make(map[int64]model.Photo, len(photos))
	for _, p := range photos {
		photoMap[p.ID] = p
	}
	ordered := make([]model.Photo, 0, len(ids))
	for _, id := range ids {
		if p, ok := photoMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return s.buildSearchData(ctx, ordered, total, req, viewerID, searchSourceES)
}

func (s *SearchService) searchFromDB(ctx context.Context, req *dto.SearchPhotoRequest, viewerID *int64) (*dto.SearchPhotoData, error) {
	skip := (req.Page - 1) * req.PageSize
	photos, total, err := s.finder.Search(ctx, req.Q, req.Sort, skip, req.PageSize)
	if err != nil {
		return nil, classify(err)
	}
	return s.buildSearchData(ctx, photos, total, req, viewerID, searchSourceDB)
}

func buildESQuery(req *dto.SearchPhotoRequest) map[string]interface{} {
	boolQ := map[string]interface{}{}

	if q := strings.TrimSpace(req.Q); q != "" {
		boolQ["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":    q,
					"fields":   []string{"location^2", "description"},
					"type":     "best_fields",
					"operator": "or",
				},
			},
		}
	} else {
		boolQ["must"] = []interface{}{
			map[string]interface{}{"match_all": map[string]interface{}{}},
		}
	}

	sortConfig := []interface{}{}
	switch req.Sort {
	case "latest":
		sortConfig = append(sortConfig, map[string]interface{}{"created_at": map[string]string{"order": "desc"}})
	case "likes":
		sortConfig = append(sortConfig, map[string]interface{}{"likes_count": map[string]string{"order": "desc"}})
		sortConfig = append(sortConfig, map[string]interface{}{"created_at": map[string]string{"order": "desc"}})
	default:
		sortConfig = append(sortConfig, map[string]interface{}{"_score": map[string]string{"order": "desc"}})
		sortConfig = append(sortConfig, map[string]interface{}{"created_at": map[string]string{"order": "desc"}})
	}

	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQ},
		"_source": []string{"id"},
		"from":    (req.Page - 1) * req.PageSize,
		"size":    req.PageSize,
		"sort":    sortConfig,
	}
}

func (s *SearchService) buildSearchData(ctx context.Context, photos []model.Photo, total int64, req *dto.SearchPhotoRequest, viewerID *int64, source string) (*dto.SearchPhotoData, error) {
	infos, err := s.likeService.Annotate(ctx, photos, viewerID)
	if err != nil {
		return nil, err
	}

	totalPages := (total + int64(req.PageSize) - 1) / int64(req.PageSize)
	return &dto.SearchPhotoData{
		Photos:     infos,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
		Source:     source,
	}, nil
}
