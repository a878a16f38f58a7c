package osm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"street-network/model"
	"street-network/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
)

var (
	// ErrEmptyResult 查询没有返回任何结果
	ErrEmptyResult = errors.New("查询结果为空")
	// ErrNotPolygon 地理编码结果不是多边形
	ErrNotPolygon = errors.New("地理编码结果不是 Polygon/MultiPolygon")
)

// Client Nominatim + Overpass 数据源客户端
type Client struct {
	OverpassURL  string
	NominatimURL string
	UserAgent    string
	MaxRetries   int
	Backoff      time.Duration // 重试基础间隔，第 n 次重试等待 n² 倍
	CacheDir     string        // 为空表示不缓存

	client *http.Client
}

// NewClient 根据配置创建客户端
func NewClient(cfg model.OSMConfig) (*Client, error) {
	c := &Client{
		OverpassURL:  cfg.OverpassURL,
		NominatimURL: cfg.NominatimURL,
		UserAgent:    cfg.UserAgent,
		MaxRetries:   cfg.MaxRetries,
		Backoff:      time.Second,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if cfg.UseCache {
		dir := cfg.CacheDir
		if dir == "" {
			var err error
			dir, err = GetCacheDir()
			if err != nil {
				return nil, fmt.Errorf("获取缓存目录失败: %w", err)
			}
		}
		c.CacheDir = dir
	}
	return c, nil
}

// GetCacheDir 响应缓存目录
// 优先级: $STREETNET_CACHE_DIR -> $XDG_CACHE_HOME/streetnet -> ~/.cache/streetnet
func GetCacheDir() (string, error) {
	if dir := os.Getenv("STREETNET_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "streetnet"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("获取用户目录失败: %w", err)
	}
	return filepath.Join(home, ".cache", "streetnet"), nil
}

// Geocode 通过 Nominatim 将地名解析为边界多边形
func (c *Client) Geocode(ctx context.Context, place string) (orb.Geometry, error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "geojson")
	params.Set("polygon_geojson", "1")
	params.Set("limit", "50")
	endpoint := strings.TrimRight(c.NominatimURL, "/") + "/search?" + params.Encode()

	body, err := c.fetch(ctx, http.MethodGet, endpoint, nil, "json")
	if err != nil {
		return nil, fmt.Errorf("地理编码 %q 失败: %w", place, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("解析 Nominatim 响应失败: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("地理编码 %q: %w", place, ErrEmptyResult)
	}

	// 取第一个多边形结果
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			return g, nil
		}
	}
	return nil, fmt.Errorf("地理编码 %q: %w", place, ErrNotPolygon)
}

// Overpass 执行 Overpass QL 查询并解析 XML 结果
func (c *Client) Overpass(ctx context.Context, query string) (*osm.OSM, error) {
	form := url.Values{}
	form.Set("data", query)

	body, err := c.fetch(ctx, http.MethodPost, c.OverpassURL, []byte(form.Encode()), "xml")
	if err != nil {
		return nil, fmt.Errorf("Overpass 查询失败: %w", err)
	}

	data := &osm.OSM{}
	if err := xml.Unmarshal(body, data); err != nil {
		return nil, fmt.Errorf("解析 Overpass XML 失败: %w", err)
	}
	return data, nil
}

// fetch 发送请求，带缓存和重试 (传输错误、429 和 5xx 会重试)
func (c *Client) fetch(ctx context.Context, method, endpoint string, payload []byte, ext string) ([]byte, error) {
	key := utils.CacheKey(method, endpoint, string(payload))
	if data, ok := c.readCache(key, ext); ok {
		log.Printf("使用缓存响应: %s", key[:12])
		return data, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * c.Backoff
			log.Printf("第 %d/%d 次重试, 等待 %v...", attempt, c.MaxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, retry, err := c.do(ctx, method, endpoint, payload)
		if err == nil {
			c.writeCache(key, ext, data)
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, bool, error) {
	var body io.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return data, false, nil
}

func (c *Client) cachePath(key, ext string) string {
	return filepath.Join(c.CacheDir, key+"."+ext)
}

func (c *Client) readCache(key, ext string) ([]byte, bool) {
	if c.CacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.cachePath(key, ext))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) writeCache(key, ext string, data []byte) {
	if c.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		log.Printf("警告: 创建缓存目录失败: %v", err)
		return
	}
	if err := os.WriteFile(c.cachePath(key, ext), data, 0o644); err != nil {
		log.Printf("警告: 写入缓存失败: %v", err)
	}
}
