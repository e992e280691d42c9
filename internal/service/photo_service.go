package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"skymate/internal/api/dto"
	"skymate/internal/model"
	"skymate/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPhotoNoPermission    = errors.New("no permission to modify this photo")
	ErrUnsupportedPhotoType = errors.New("unsupported photo type")
)

const uploadTimeout = 2 * time.Minute

// PhotoRepo 照片生命周期所需的存储操作
type PhotoRepo interface {
	Create(ctx context.Context, photo *model.Photo) error
	GetByID(ctx context.Context, id int64) (*model.Photo, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Photo, error)
	DeleteWithLikes(ctx context.Context, id int64, withLikes bool) error
}

// ObjectStorage 照片文件存储
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// PhotoIndexer 搜索索引同步
type PhotoIndexer interface {
	SyncPhoto(ctx context.Context, photo *model.Photo) error
	DeletePhoto(ctx context.Context, photoID int64) error
}

type PhotoService struct {
	photoRepo   PhotoRepo
	storage     ObjectStorage
	indexer     PhotoIndexer
	likeService *LikeService
}

// NewPhotoService indexer 可以为 nil（未启用搜索）
func NewPhotoService(photoRepo PhotoRepo, storage ObjectStorage, indexer PhotoIndexer, likeService *LikeService) *PhotoService {
	return &PhotoService{
		photoRepo:   photoRepo,
		storage:     storage,
		indexer:     indexer,
		likeService: likeService,
	}
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

func photoExtension(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := photoExtensions[ct]
	if !ok {
		return "", ErrUnsupportedPhotoType
	}
	return ext, nil
}

// Upload 上传照片：对象存储 + 数据库记录 + 搜索索引
func (s *PhotoService) Upload(ctx context.Context, userID int64, req *dto.PhotoUploadRequest, file io.Reader, size int64, contentType string) (*dto.PhotoInfo, error) {
	ext, err := photoExtension(contentType)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), ext)

	uctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	if _, err := s.storage.Upload(uctx, objectName, file, size, contentType); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	photo := &model.Photo{
		UserID:      userID,
		StoragePath: objectName,
		Description: req.Description,
		Location:    req.Location,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		logger.Error("Create photo record failed, removing uploaded object",
			zap.String("object", objectName), zap.Error(err))
		if rmErr := s.storage.Remove(ctx, objectName); rmErr != nil {
			logger.Warn("Remove orphan object failed", zap.String("object", objectName), zap.Error(rmErr))
		}
		return nil, err
	}

	s.syncIndex(ctx, photo)

	info := s.likeService.toPhotoInfo(photo)
	return &info, nil
}

func (s *PhotoService) syncIndex(ctx context.Context, photo *model.Photo) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.SyncPhoto(ctx, photo); err != nil {
		logger.Warn("Sync photo to search index failed", zap.Int64("photo_id", photo.ID), zap.Error(err))
	}
}

// Get 获取单张照片及点赞信息
func (s *PhotoService) Get(ctx context.Context, photoID int64, viewerID *int64) (*dto.PhotoInfo, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, classify(err)
	}

	infos, err := s.likeService.Annotate(ctx, []model.Photo{*photo}, viewerID)
	if err != nil {
		return nil, err
	}
	return &infos[0], nil
}

// ListByUser 用户上传的照片（最新在前）
func (s *PhotoService) ListByUser(ctx context.Context, ownerID int64, viewerID *int64) ([]dto.PhotoInfo, error) {
	photos, err := s.photoRepo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	return s.likeService.Annotate(ctx, photos, viewerID)
}

// Delete 删除照片（仅上传者本人），点赞记录随照片一起删除
func (s *PhotoService) Delete(ctx context.Context, photoID, userID int64) error {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return classify(err)
	}
	if photo.UserID != userID {
		return ErrPhotoNoPermission
	}

	caps, err := s.likeService.Detect(ctx)
	if err != nil {
		return err
	}

	if err := s.photoRepo.DeleteWithLikes(ctx, photoID, caps.Mode == ModeRelational); err != nil {
		return classify(err)
	}

	if photo.StoragePath != "" {
		if err := s.storage.Remove(ctx, photo.StoragePath); err != nil {
			logger.Warn("Remove photo object failed", zap.String("object", photo.StoragePath), zap.Error(err))
		}
	}
	if s.indexer != nil {
		if err := s.indexer.DeletePhoto(ctx, photoID); err != nil {
			logger.Warn("Delete photo from search index failed", zap.Int64("photo_id", photoID), zap.Error(err))
		}
	}

	logger.Info("Photo deleted", zap.Int64("photo_id", photoID), zap.Int64("user_id", userID))
	return nil
}
