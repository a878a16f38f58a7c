package db

import (
	"fmt"

	"street-network/model"
)

// CreateUser 新建用户，用户名重复时返回错误
func CreateUser(u *model.User) error {
	tx, err := conn()
	if err != nil {
		return err
	}
	if err := tx.Create(u).Error; err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// FindUser 按用户名查询用户
func FindUser(username string) (*model.User, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
