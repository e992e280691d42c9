package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"skymate/internal/model"
	"skymate/pkg/logger"

	"go.uber.org/zap"
)

// PhotoDoc ES 照片文档结构
type PhotoDoc struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	LikesCount  int64  `json:"likes_count"`
	CreatedAt   string `json:"created_at"`
}

func photoToDoc(p *model.Photo) *PhotoDoc {
	doc := &PhotoDoc{
		ID:          p.ID,
		UserID:      p.UserID,
		Description: p.Description,
		LikesCount:  p.LikesCount,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Location != nil {
		doc.Location = *p.Location
	}
	return doc
}

// SyncPhoto 同步单张照片到 ES
func (c *Client) SyncPhoto(ctx context.Context, p *model.Photo) error {
	body, err := json.Marshal(photoToDoc(p))
	if err != nil {
		return err
	}

	resp, err := c.indexDoc(ctx, strconv.FormatInt(p.ID, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Photo synced to ES", zap.Int64("photo_id", p.ID))
	return nil
}

// UpdateLikes 局部更新照片文档的点赞数
func (c *Client) UpdateLikes(ctx context.Context, photoID, likes int64) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]interface{}{"likes_count": likes},
	})
	if err != nil {
		return err
	}

	resp, err := c.update(ctx, strconv.FormatInt(photoID, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 文档尚未索引时忽略
	if resp.IsError() && resp.StatusCode != 404 {
		return fmt.Errorf("update document failed: %s", resp.String())
	}
	return nil
}

// DeletePhoto 从 ES 删除照片
func (c *Client) DeletePhoto(ctx context.Context, photoID int64) error {
	resp, err := c.delete(ctx, strconv.FormatInt(photoID, 10))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() && resp.StatusCode != 404 {
		return fmt.Errorf("delete document failed: %s", resp.String())
	}
	return nil
}

// SearchPhotoIDs 执行查询，返回命中的照片 ID（保持 ES 排序）与总数
func (c *Client) SearchPhotoIDs(ctx context.Context, query map[string]interface{}) ([]int64, int64, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.search(ctx, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, 0, fmt.Errorf("ES search error: %s", resp.String())
	}

	var esResp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&esResp); err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, esResp.Hits.Total.Value, nil
}
