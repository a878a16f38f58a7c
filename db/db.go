package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"street-network/model"
)

// DB 全局数据库连接，未连接时为 nil
var DB *gorm.DB

// retryInterval 连接失败后的等待时间
var retryInterval = 2 * time.Second

// InitDB 连接 PostgreSQL 并迁移表结构
// 数据库可能晚于程序启动 (如 docker compose)，失败时按 MaxRetries 重试
func InitDB(cfg model.DatabaseConfig) error {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < maxRetries; i++ {
		conn, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("等待数据库就绪... (%d/%d): %v", i+1, maxRetries, err)
		time.Sleep(retryInterval)
	}
	if err != nil {
		return fmt.Errorf("无法连接数据库: %w", err)
	}

	// 自动迁移模式 (自动创建表结构)
	if err := conn.AutoMigrate(
		&model.User{},
		&NetworkRecord{},
		&NodeRecord{},
		&EdgeRecord{},
		&FeatureRecord{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	DB = conn
	log.Println("数据库连接并初始化成功！")
	return nil
}

// Connected 是否已连接数据库
func Connected() bool {
	return DB != nil
}
