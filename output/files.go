package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CSVOutput 每个主题一个 CSV 文件，表头取第一行的字段 (排序)
type CSVOutput struct {
	dir     string
	files   map[string]*os.File
	writers map[string]*csv.Writer
	headers map[string][]string
	order   []string
}

// NewCSVOutput 创建 CSV 输出
func NewCSVOutput(dir string) *CSVOutput {
	return &CSVOutput{
		dir:     dir,
		files:   make(map[string]*os.File),
		writers: make(map[string]*csv.Writer),
		headers: make(map[string][]string),
	}
}

// decodeRow 解析一行 JSON，数字保持原文
func decodeRow(msg []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var row map[string]interface{}
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("解析消息失败: %w", err)
	}
	return row, nil
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	row, err := decodeRow(msg)
	if err != nil {
		return err
	}

	w, ok := c.writers[topic]
	if !ok {
		if err := ensureDir(c.dir); err != nil {
			return err
		}
		path := filepath.Join(c.dir, topic+".csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		w = csv.NewWriter(f)
		c.files[topic] = f
		c.writers[topic] = w
		c.order = append(c.order, topic)

		headers := make([]string, 0, len(row))
		for k := range row {
			headers = append(headers, k)
		}
		sort.Strings(headers)
		c.headers[topic] = headers
		if err := w.Write(headers); err != nil {
			return err
		}
	}

	record := make([]string, len(c.headers[topic]))
	for i, h := range c.headers[topic] {
		if v, ok := row[h]; ok && v != nil {
			record[i] = fmt.Sprintf("%v", v)
		}
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (c *CSVOutput) Close() error {
	var lastErr error
	for _, topic := range c.order {
		c.writers[topic].Flush()
		if err := c.writers[topic].Error(); err != nil {
			lastErr = err
		}
		if err := c.files[topic].Close(); err != nil {
			lastErr = err
		}
	}
	logWritten(c.Files())
	return lastErr
}

// Files 已写出的文件
func (c *CSVOutput) Files() []string {
	files := make([]string, len(c.order))
	for i, topic := range c.order {
		files[i] = c.files[topic].Name()
	}
	return files
}

// JSONOutput 每个主题一个 ndjson 文件
type JSONOutput struct {
	dir   string
	files map[string]*os.File
	order []string
}

// NewJSONOutput 创建 JSON 输出
func NewJSONOutput(dir string) *JSONOutput {
	return &JSONOutput{dir: dir, files: make(map[string]*os.File)}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("消息不是合法 JSON: %s", msg)
	}
	f, ok := j.files[topic]
	if !ok {
		if err := ensureDir(j.dir); err != nil {
			return err
		}
		var err error
		f, err = os.Create(filepath.Join(j.dir, topic+".json"))
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		j.files[topic] = f
		j.order = append(j.order, topic)
	}
	if _, err := f.Write(msg); err != nil {
		return err
	}
	_, err := f.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	var lastErr error
	for _, topic := range j.order {
		if err := j.files[topic].Close(); err != nil {
			lastErr = err
		}
	}
	logWritten(j.Files())
	return lastErr
}

// Files 已写出的文件
func (j *JSONOutput) Files() []string {
	files := make([]string, len(j.order))
	for i, topic := range j.order {
		files[i] = j.files[topic].Name()
	}
	return files
}
