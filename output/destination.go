package output

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"street-network/model"
)

// Destination 表格输出目标，每条消息是一行 JSON
type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// FileDestination 写本地文件的输出，可在关闭后上传
type FileDestination interface {
	Destination
	Files() []string
}

// NewDestination 按配置创建输出目标，文件类输出写入 <dir>/<runID>/
func NewDestination(cfg model.OutputConfig, runID string) (Destination, error) {
	dir := filepath.Join(cfg.Dir, runID)
	switch cfg.Type {
	case "csv", "":
		return NewCSVOutput(dir), nil
	case "json":
		return NewJSONOutput(dir), nil
	case "parquet":
		return NewParquetOutput(dir), nil
	case "kafka":
		return NewKafkaOutput(cfg.KafkaBrokers, cfg.TopicPrefix)
	case "console":
		return NewConsoleOutput(os.Stdout), nil
	}
	return nil, fmt.Errorf("不支持的输出类型: %s", cfg.Type)
}

// Finish 关闭输出，配置了 S3 桶时上传生成的文件
func Finish(ctx context.Context, dest Destination, cfg model.OutputConfig, runID string) error {
	if err := dest.Close(); err != nil {
		return fmt.Errorf("关闭输出失败: %w", err)
	}
	fd, ok := dest.(FileDestination)
	if !ok || cfg.S3Bucket == "" {
		return nil
	}
	uploader, err := NewS3Uploader(ctx, cfg.Region, cfg.S3Bucket, filepath.ToSlash(filepath.Join(cfg.S3Prefix, runID)))
	if err != nil {
		return err
	}
	return uploader.Upload(ctx, fd.Files())
}

// ConsoleOutput 输出到终端
type ConsoleOutput struct {
	w io.Writer
}

// NewConsoleOutput 创建终端输出
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("写入终端失败: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return nil
}

func logWritten(files []string) {
	for _, f := range files {
		log.Printf("已写出: %s", f)
	}
}
