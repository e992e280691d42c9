package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skymate/internal/api/dto"
	infraKafka "skymate/internal/infra/kafka"
	"skymate/internal/model"
	"skymate/internal/repository"
	"skymate/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrLikeConflict       = errors.New("photo already liked by user")
	ErrBackendUnavailable = errors.New("like storage unavailable")
)

const defaultLikeCallTimeout = 5 * time.Second

// PhotoStore 照片存储
type PhotoStore interface {
	GetByID(ctx context.Context, id int64) (*model.Photo, error)
	ListAll(ctx context.Context) ([]model.Photo, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Photo, error)
	SetLikesCount(ctx context.Context, id, count int64) error
}

// LikeStore 点赞关系存储
type LikeStore interface {
	Create(ctx context.Context, userID, photoID int64) (*model.Like, error)
	Delete(ctx context.Context, userID, photoID int64) (bool, error)
	Exists(ctx context.Context, userID, photoID int64) (bool, error)
	CountByPhoto(ctx context.Context, photoID int64) (int64, error)
	CountByPhotos(ctx context.Context, photoIDs []int64) (map[int64]int64, error)
	BatchCheckLiked(ctx context.Context, userID int64, photoIDs []int64) (map[int64]bool, error)
	LikedPhotoIDs(ctx context.Context, userID int64) ([]int64, error)
}

// URLResolver 把存储路径转换为公开地址
type URLResolver interface {
	ResolvePublicURL(path string) string
}

// LikeEventPublisher 点赞变更事件发布
type LikeEventPublisher interface {
	PublishLikeEvent(ctx context.Context, event infraKafka.LikeEvent) error
}

// LikeService 点赞计数对账服务。userID 一律显式传入
type LikeService struct {
	photoStore PhotoStore
	likeStore  LikeStore
	detector   *capabilityDetector
	resolver   URLResolver
	publisher  LikeEventPublisher
	timeout    time.Duration
}

func NewLikeService(
	photoStore PhotoStore,
	likeStore LikeStore,
	probe SchemaProbe,
	resolver URLResolver,
	publisher LikeEventPublisher,
	timeout time.Duration,
) *LikeService {
	if timeout <= 0 {
		timeout = defaultLikeCallTimeout
	}
	return &LikeService{
		photoStore: photoStore,
		likeStore:  likeStore,
		detector:   newCapabilityDetector(probe),
		resolver:   resolver,
		publisher:  publisher,
		timeout:    timeout,
	}
}

// classify 把存储层错误收敛为服务层错误
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrPhotoNotFound
	case errors.Is(err, repository.ErrDuplicateLike):
		return ErrLikeConflict
	default:
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
}

// call 每次存储调用单独计时，超时按 ErrBackendUnavailable 返回
func (s *LikeService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return classify(fn(cctx))
}

// Detect 探测运行模式（启动时调用，也会在首次使用时惰性执行）
func (s *LikeService) Detect(ctx context.Context) (Capabilities, error) {
	var caps Capabilities
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		caps, err = s.detector.detect(ctx)
		return err
	})
	return caps, err
}

// Capabilities 返回已缓存的探测结果
func (s *LikeService) Capabilities() Capabilities {
	return s.detector.current()
}

func (s *LikeService) getPhoto(ctx context.Context, photoID int64) (*model.Photo, error) {
	var photo *model.Photo
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		photo, err = s.photoStore.GetByID(ctx, photoID)
		return err
	})
	return photo, err
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// GetLikesCount 获取照片点赞数
func (s *LikeService) GetLikesCount(ctx context.Context, photoID int64) (int64, error) {
	caps, err := s.Detect(ctx)
	if err != nil {
		return 0, err
	}

	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return 0, err
	}

	if caps.Mode == ModeDegraded {
		return nonNegative(photo.LikesCount), nil
	}
	return s.countLikes(ctx, photoID)
}

func (s *LikeService) countLikes(ctx context.Context, photoID int64) (int64, error) {
	var count int64
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.likeStore.CountByPhoto(ctx, photoID)
		return err
	})
	return nonNegative(count), err
}

// HasUserLiked 用户是否已点赞。降级模式下无法判断，恒为 false
func (s *LikeService) HasUserLiked(ctx context.Context, photoID, userID int64) (bool, error) {
	caps, err := s.Detect(ctx)
	if err != nil {
		return false, err
	}
	if caps.Mode == ModeDegraded {
		return false, nil
	}
	return s.exists(ctx, photoID, userID)
}

func (s *LikeService) exists(ctx context.Context, photoID, userID int64) (bool, error) {
	var liked bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		liked, err = s.likeStore.Exists(ctx, userID, photoID)
		return err
	})
	return liked, err
}

// AddLike 点赞，重复点赞视为成功
func (s *LikeService) AddLike(ctx context.Context, photoID, userID int64) error {
	caps, err := s.Detect(ctx)
	if err != nil {
		return err
	}
	if caps.Mode == ModeDegraded {
		logger.Debug("AddLike skipped in degraded mode",
			zap.Int64("photo_id", photoID), zap.Int64("user_id", userID))
		return nil
	}
	if _, err := s.getPhoto(ctx, photoID); err != nil {
		return err
	}
	return s.insertLike(ctx, photoID, userID)
}

func (s *LikeService) insertLike(ctx context.Context, photoID, userID int64) error {
	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.likeStore.Create(ctx, userID, photoID)
		return err
	})
	if errors.Is(err, ErrLikeConflict) {
		logger.Debug("Duplicate like absorbed",
			zap.Int64("photo_id", photoID), zap.Int64("user_id", userID))
		return nil
	}
	return err
}

// RemoveLike 取消点赞，未点赞时为 no-op
func (s *LikeService) RemoveLike(ctx context.Context, photoID, userID int64) error {
	caps, err := s.Detect(ctx)
	if err != nil {
		return err
	}
	if caps.Mode == ModeDegraded {
		logger.Debug("RemoveLike skipped in degraded mode",
			zap.Int64("photo_id", photoID), zap.Int64("user_id", userID))
		return nil
	}
	return s.deleteLike(ctx, photoID, userID)
}

func (s *LikeService) deleteLike(ctx context.Context, photoID, userID int64) error {
	return s.call(ctx, func(ctx context.Context) error {
		_, err := s.likeStore.Delete(ctx, userID, photoID)
		return err
	})
}

// ToggleLike 切换点赞状态并返回重新读取的点赞数。
// 非原子：并发切换可能交错，重复插入由唯一约束兜底
func (s *LikeService) ToggleLike(ctx context.Context, photoID, userID int64) (*dto.ToggleResult, error) {
	caps, err := s.Detect(ctx)
	if err != nil {
		return nil, err
	}

	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}

	if caps.Mode == ModeDegraded {
		logger.Debug("ToggleLike is a no-op in degraded mode",
			zap.Int64("photo_id", photoID), zap.Int64("user_id", userID))
		return &dto.ToggleResult{Likes: nonNegative(photo.LikesCount), IsLiked: false}, nil
	}

	liked, err := s.exists(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = s.deleteLike(ctx, photoID, userID)
	} else {
		err = s.insertLike(ctx, photoID, userID)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.countLikes(ctx, photoID)
	if err != nil {
		return nil, err
	}

	if caps.HasCounter {
		s.syncCounter(ctx, photoID, count)
	}

	result := &dto.ToggleResult{Likes: count, IsLiked: !liked}
	s.publish(ctx, photoID, userID, result)
	return result, nil
}

// syncCounter 回写冗余计数。失败只记日志：likes 表是权威数据，worker 会再次对账
func (s *LikeService) syncCounter(ctx context.Context, photoID, count int64) {
	err := s.call(ctx, func(ctx context.Context) error {
		return s.photoStore.SetLikesCount(ctx, photoID, nonNegative(count))
	})
	if err != nil {
		logger.Warn("Failed to sync photo likes counter",
			zap.Int64("photo_id", photoID),
			zap.Int64("count", count),
			zap.Error(err),
		)
	}
}

func (s *LikeService) publish(ctx context.Context, photoID, userID int64, result *dto.ToggleResult) {
	if s.publisher == nil {
		return
	}
	event := infraKafka.LikeEvent{
		PhotoID:    photoID,
		UserID:     userID,
		Liked:      result.IsLiked,
		Likes:      result.Likes,
		OccurredAt: time.Now().Unix(),
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.PublishLikeEvent(cctx, event); err != nil {
		logger.Warn("Failed to publish like event", zap.Int64("photo_id", photoID), zap.Error(err))
	}
}

// ReconcileCounter 按 likes 表重新计数并回写 photos.likes_count
func (s *LikeService) ReconcileCounter(ctx context.Context, photoID int64) (int64, error) {
	caps, err := s.Detect(ctx)
	if err != nil {
		return 0, err
	}

	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return 0, err
	}
	if caps.Mode == ModeDegraded {
		return nonNegative(photo.LikesCount), nil
	}

	count, err := s.countLikes(ctx, photoID)
	if err != nil {
		return 0, err
	}
	if !caps.HasCounter || photo.LikesCount == count {
		return count, nil
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.photoStore.SetLikesCount(ctx, photoID, count)
	})
	if err != nil {
		return 0, err
	}
	logger.Info("Photo likes counter reconciled",
		zap.Int64("photo_id", photoID),
		zap.Int64("stored", photo.LikesCount),
		zap.Int64("actual", count),
	)
	return count, nil
}

// GetPhotosWithLikes 全部照片（最新在前）及点赞信息。失败时返回空列表并记录日志
func (s *LikeService) GetPhotosWithLikes(ctx context.Context, userID *int64) []dto.PhotoInfo {
	var photos []model.Photo
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		photos, err = s.photoStore.ListAll(ctx)
		return err
	})
	if err != nil {
		logger.Error("Load photos failed", zap.Error(err))
		return []dto.PhotoInfo{}
	}

	infos, err := s.Annotate(ctx, photos, userID)
	if err != nil {
		logger.Error("Annotate photos with likes failed", zap.Error(err))
		return []dto.PhotoInfo{}
	}
	return infos
}

// GetUserLikedPhotos 用户点赞过的照片（按照片上传时间倒序）。降级模式返回空列表
func (s *LikeService) GetUserLikedPhotos(ctx context.Context, userID int64) []dto.PhotoInfo {
	caps, err := s.Detect(ctx)
	if err != nil {
		logger.Error("Detect like capability failed", zap.Error(err))
		return []dto.PhotoInfo{}
	}
	if caps.Mode == ModeDegraded {
		return []dto.PhotoInfo{}
	}

	var photos []model.Photo
	err = s.call(ctx, func(ctx context.Context) error {
		ids, err := s.likeStore.LikedPhotoIDs(ctx, userID)
		if err != nil {
			return err
		}
		photos, err = s.photoStore.GetByIDs(ctx, ids)
		return err
	})
	if err != nil {
		logger.Error("Load liked photos failed", zap.Int64("user_id", userID), zap.Error(err))
		return []dto.PhotoInfo{}
	}

	infos, err := s.annotate(ctx, caps, photos, nil)
	if err != nil {
		logger.Error("Annotate liked photos failed", zap.Int64("user_id", userID), zap.Error(err))
		return []dto.PhotoInfo{}
	}
	for i := range infos {
		infos[i].IsLikedByUser = true
	}
	return infos
}

// Annotate 为照片补充点赞数、当前用户点赞状态与公开地址，保持输入顺序
func (s *LikeService) Annotate(ctx context.Context, photos []model.Photo, viewerID *int64) ([]dto.PhotoInfo, error) {
	caps, err := s.Detect(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, caps, photos, viewerID)
}

func (s *LikeService) annotate(ctx context.Context, caps Capabilities, photos []model.Photo, viewerID *int64) ([]dto.PhotoInfo, error) {
	infos := make([]dto.PhotoInfo, 0, len(photos))
	if len(photos) == 0 {
		return infos, nil
	}

	ids := make([]int64, 0, len(photos))
	for i := range photos {
		ids = append(ids, photos[i].ID)
	}

	var (
		counts map[int64]int64
		liked  map[int64]bool
	)
	if caps.Mode == ModeRelational {
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			counts, err = s.likeStore.CountByPhotos(ctx, ids)
			return err
		})
		if err != nil {
			return nil, err
		}

		if viewerID != nil {
			err = s.call(ctx, func(ctx context.Context) error {
				var err error
				liked, err = s.likeStore.BatchCheckLiked(ctx, *viewerID, ids)
				return err
			})
			if err != nil {
				return nil, err
			}
		}
	}

	for i := range photos {
		p := &photos[i]
		info := s.toPhotoInfo(p)
		if counts != nil {
			info.Likes = nonNegative(counts[p.ID])
		} else {
			info.Likes = nonNegative(p.LikesCount)
		}
		info.IsLikedByUser = liked[p.ID]
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *LikeService) toPhotoInfo(p *model.Photo) dto.PhotoInfo {
	url := p.URL
	if url == "" && p.StoragePath != "" && s.resolver != nil {
		url = s.resolver.ResolvePublicURL(p.StoragePath)
	}
	return dto.PhotoInfo{
		ID:          p.ID,
		UserID:      p.UserID,
		URL:         url,
		StoragePath: p.StoragePath,
		Description: p.Description,
		Location:    p.Location,
		CreatedAt:   p.CreatedAt,
	}
}
