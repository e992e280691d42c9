package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"skymate/internal/config"
	"skymate/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// Client 封装照片索引相关的 ES 操作
type Client struct {
	es    *elasticsearch.Client
	index string
}

func normalizeHosts(raw []string) []string {
	hosts := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "http") {
			h = "http://" + h
		}
		hosts = append(hosts, h)
	}
	return hosts
}

// New 初始化 Elasticsearch 客户端并确认可连通
func New(cfg *config.ElasticsearchConfig) (*Client, error) {
	hosts := normalizeHosts(cfg.Hosts)
	if len(hosts) == 0 {
		return nil, fmt.Errorf("elasticsearch hosts is empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     hosts,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("elasticsearch ping failed: %s", resp.String())
	}

	logger.Info("Elasticsearch connected", zap.Strings("hosts", hosts))
	return &Client{es: es, index: cfg.IndexName("photos")}, nil
}

func (c *Client) search(ctx context.Context, body io.Reader) (*esapi.Response, error) {
	return c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(body),
	)
}

func (c *Client) indexDoc(ctx context.Context, id string, body io.Reader) (*esapi.Response, error) {
	return c.es.Index(
		c.index,
		body,
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
	)
}

func (c *Client) update(ctx context.Context, id string, body io.Reader) (*esapi.Response, error) {
	return c.es.Update(
		c.index,
		id,
		body,
		c.es.Update.WithContext(ctx),
	)
}

func (c *Client) delete(ctx context.Context, id string) (*esapi.Response, error) {
	return c.es.Delete(
		c.index,
		id,
		c.es.Delete.WithContext(ctx),
	)
}

func (c *Client) indicesExists(ctx context.Context) (bool, error) {
	resp, err := c.es.Indices.Exists(
		[]string{c.index},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return !resp.IsError() && resp.StatusCode == 200, nil
}

func (c *Client) indicesCreate(ctx context.Context, body io.Reader) (*esapi.Response, error) {
	return c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(body),
	)
}
