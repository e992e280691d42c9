package service

import (
	"context"
	"sync"

	"skymate/internal/repository"
	"skymate/pkg/logger"

	"go.uber.org/zap"
)

// CapabilityMode 点赞存储的运行模式
type CapabilityMode int

const (
	// ModeUnknown 尚未成功探测
	ModeUnknown CapabilityMode = iota
	// ModeRelational likes 表存在，点赞数由记录数推导
	ModeRelational
	// ModeDegraded likes 表不存在，只能读写 photos.likes_count
	ModeDegraded
)

func (m CapabilityMode) String() string {
	switch m {
	case ModeRelational:
		return "relational"
	case ModeDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Capabilities 探测结果
type Capabilities struct {
	Mode       CapabilityMode
	HasCounter bool
}

// SchemaProbe 探测数据库结构
type SchemaProbe interface {
	Inspect(ctx context.Context) (repository.Schema, error)
}

// capabilityDetector 成功探测后缓存结果；探测失败不缓存，下次调用重新探测
type capabilityDetector struct {
	probe SchemaProbe

	mu        sync.Mutex
	caps      Capabilities
	confirmed bool
}

func newCapabilityDetector(probe SchemaProbe) *capabilityDetector {
	return &capabilityDetector{probe: probe}
}

func (d *capabilityDetector) detect(ctx context.Context) (Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.confirmed {
		return d.caps, nil
	}

	schema, err := d.probe.Inspect(ctx)
	if err != nil {
		return Capabilities{Mode: ModeUnknown}, err
	}

	caps := Capabilities{Mode: ModeDegraded, HasCounter: schema.HasLikesCounter}
	if schema.HasLikesTable {
		caps.Mode = ModeRelational
	}
	d.caps = caps
	d.confirmed = true

	if caps.Mode == ModeDegraded {
		logger.Warn("Likes table not found, like service running in degraded mode",
			zap.Bool("has_counter", caps.HasCounter),
		)
	} else {
		logger.Info("Like service capability detected",
			zap.String("mode", caps.Mode.String()),
			zap.Bool("has_counter", caps.HasCounter),
		)
	}
	return caps, nil
}

// current 返回缓存结果，未确认时为 ModeUnknown
func (d *capabilityDetector) current() Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.confirmed {
		return Capabilities{Mode: ModeUnknown}
	}
	return d.caps
}
