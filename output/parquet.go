package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetSchema 主题对应的行类型
type parquetSchema struct {
	obj    interface{}
	decode func(msg []byte) (interface{}, error)
}

func schemaFor[T any]() parquetSchema {
	return parquetSchema{
		obj: new(T),
		decode: func(msg []byte) (interface{}, error) {
			var row T
			if err := json.Unmarshal(msg, &row); err != nil {
				return nil, err
			}
			return row, nil
		},
	}
}

var parquetSchemas = map[string]parquetSchema{
	TopicNodes:    schemaFor[NodeRow](),
	TopicEdges:    schemaFor[EdgeRow](),
	TopicFeatures: schemaFor[FeatureRow](),
	TopicRoutes:   schemaFor[RouteRow](),
}

// ParquetOutput 每个主题一个 Parquet 文件，按行类型写入
type ParquetOutput struct {
	dir     string
	writers map[string]*writer.ParquetWriter
	files   map[string]source.ParquetFile
	paths   map[string]string
	order   []string
}

// NewParquetOutput 创建 Parquet 输出
func NewParquetOutput(dir string) *ParquetOutput {
	return &ParquetOutput{
		dir:     dir,
		writers: make(map[string]*writer.ParquetWriter),
		files:   make(map[string]source.ParquetFile),
		paths:   make(map[string]string),
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	sc, ok := parquetSchemas[topic]
	if !ok {
		return fmt.Errorf("主题 %s 没有 Parquet 表结构", topic)
	}
	row, err := sc.decode(msg)
	if err != nil {
		return fmt.Errorf("解析消息失败: %w", err)
	}

	pw, ok := p.writers[topic]
	if !ok {
		if err := ensureDir(p.dir); err != nil {
			return err
		}
		path := filepath.Join(p.dir, topic+".parquet")
		fw, err := local.NewLocalFileWriter(path)
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		pw, err = writer.NewParquetWriter(fw, sc.obj, 4)
		if err != nil {
			fw.Close()
			return fmt.Errorf("创建 ParquetWriter 失败: %w", err)
		}
		p.writers[topic] = pw
		p.files[topic] = fw
		p.paths[topic] = path
		p.order = append(p.order, topic)
	}

	if err := pw.Write(row); err != nil {
		return fmt.Errorf("写入 Parquet 失败: %w", err)
	}
	return nil
}

func (p *ParquetOutput) Close() error {
	var lastErr error
	for _, topic := range p.order {
		if err := p.writers[topic].WriteStop(); err != nil {
			lastErr = fmt.Errorf("%s: %w", topic, err)
		}
		if err := p.files[topic].Close(); err != nil {
			lastErr = fmt.Errorf("%s: %w", topic, err)
		}
	}
	logWritten(p.Files())
	return lastErr
}

// Files 已写出的文件
func (p *ParquetOutput) Files() []string {
	files := make([]string, len(p.order))
	for i, topic := range p.order {
		files[i] = p.paths[topic]
	}
	return files
}
