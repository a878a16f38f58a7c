package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config 全局配置，由配置文件、环境变量 (STREETNET_ 前缀) 和命令行参数合并而成
type Config struct {
	Place       string `mapstructure:"place"`
	NetworkType string `mapstructure:"network_type"`

	OSM      OSMConfig      `mapstructure:"osm"`
	Network  NetworkConfig  `mapstructure:"network"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Speeds   SpeedConfig    `mapstructure:"speeds"`
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Plot     PlotConfig     `mapstructure:"plot"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
}

// OSMConfig 数据源 (Nominatim / Overpass) 访问参数
type OSMConfig struct {
	OverpassURL  string        `mapstructure:"overpass_url"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	CacheDir     string        `mapstructure:"cache_dir"`
	UseCache     bool          `mapstructure:"use_cache"`
}

// NetworkConfig 路网构建参数
type NetworkConfig struct {
	Bidirectional bool `mapstructure:"bidirectional"`
	Simplify      bool `mapstructure:"simplify"`
	RetainAll     bool `mapstructure:"retain_all"`
}

// StatsConfig 路网统计参数
type StatsConfig struct {
	CleanIntTol float64 `mapstructure:"clean_int_tol"` // 米
}

// SpeedConfig 车速推算参数
type SpeedConfig struct {
	HighwaySpeeds map[string]float64 `mapstructure:"hwy_speeds"` // km/h
	Fallback      float64            `mapstructure:"fallback"`   // km/h，0 表示不使用
}

// ClusterConfig 兴趣点去重参数
type ClusterConfig struct {
	Tags       []string `mapstructure:"tags"` // key=value 或 key
	Eps        float64  `mapstructure:"eps"`  // 米 (EPSG:3857)
	MinSamples int      `mapstructure:"min_samples"`
}

// PlotConfig 绘图参数
type PlotConfig struct {
	Width     float64 `mapstructure:"width"`  // 厘米
	Height    float64 `mapstructure:"height"` // 厘米，0 表示按数据范围自动计算
	BgColor   string  `mapstructure:"bgcolor"`
	EdgeColor string  `mapstructure:"edge_color"`
	EdgeWidth float64 `mapstructure:"edge_width"`
	NodeColor string  `mapstructure:"node_color"`
	NodeSize  float64 `mapstructure:"node_size"`
	Cmap      string  `mapstructure:"cmap"`
}

// OutputConfig 表格输出参数
type OutputConfig struct {
	Type         string   `mapstructure:"type"` // csv, json, parquet, kafka, console
	Dir          string   `mapstructure:"dir"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	TopicPrefix  string   `mapstructure:"topic_prefix"`
	S3Bucket     string   `mapstructure:"s3_bucket"`
	S3Prefix     string   `mapstructure:"s3_prefix"`
	Region       string   `mapstructure:"region"`
}

// DatabaseConfig PostgreSQL 连接参数
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// DSN 生成 gorm postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// ServerConfig HTTP 服务参数
type ServerConfig struct {
	Addr      string        `mapstructure:"addr"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// SetDefaults 写入默认配置
func SetDefaults(v *viper.Viper) {
	v.SetDefault("place", "Berkeley County, South Carolina, USA")
	v.SetDefault("network_type", "drive")

	v.SetDefault("osm.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("osm.nominatim_url", "https://nominatim.openstreetmap.org/")
	v.SetDefault("osm.user_agent", "street-network/1.0")
	v.SetDefault("osm.timeout", 180*time.Second)
	v.SetDefault("osm.max_retries", 3)
	v.SetDefault("osm.use_cache", true)

	v.SetDefault("network.bidirectional", false)
	v.SetDefault("network.simplify", true)
	v.SetDefault("network.retain_all", false)

	v.SetDefault("stats.clean_int_tol", 15.0)

	v.SetDefault("cluster.tags", []string{"brand=Walmart"})
	v.SetDefault("cluster.eps", 500.0)
	v.SetDefault("cluster.min_samples", 1)

	v.SetDefault("plot.width", 20.0)
	v.SetDefault("plot.height", 0.0)
	v.SetDefault("plot.bgcolor", "#111111")
	v.SetDefault("plot.edge_color", "#999999")
	v.SetDefault("plot.edge_width", 1.0)
	v.SetDefault("plot.node_color", "#ffffff")
	v.SetDefault("plot.node_size", 3.0)
	v.SetDefault("plot.cmap", "blackbody")

	v.SetDefault("output.type", "csv")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("output.topic_prefix", "streetnet")
	v.SetDefault("output.region", "us-east-1")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "vvuser")
	v.SetDefault("database.password", "vvpassword")
	v.SetDefault("database.name", "streetnet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_retries", 30)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_secret", "change-me")
	v.SetDefault("server.token_ttl", 24*time.Hour)
}

// BindEnv 绑定环境变量，数据库沿用 DB_HOST 等变量名 (Docker 部署方便)
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("STREETNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("server.jwt_secret", "JWT_SECRET")
}

// LoadConfig 从 viper 实例解码配置，cfgFile 为空时只使用默认值和环境变量
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)
	BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return &cfg, nil
}

// ParseTags 解析 "key=value" / "key" 形式的标签过滤条件
// 同一个 key 出现多次时取并集，只要出现过单独的 key 就匹配任意取值
func ParseTags(items []string) map[string][]string {
	tags := make(map[string][]string)
	anyValue := make(map[string]bool)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, found := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !found {
			anyValue[key] = true
			tags[key] = nil
			continue
		}
		if anyValue[key] {
			continue
		}
		tags[key] = append(tags[key], strings.TrimSpace(value))
	}
	return tags
}
