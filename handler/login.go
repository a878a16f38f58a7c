package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"street-network/db"
	"street-network/model"
	"street-network/utils"
)

// JWT 密钥与有效期，由 Configure 从配置读取
var (
	jwtSecret = []byte("change-me")
	tokenTTL  = 24 * time.Hour
)

// Configure 读取服务配置
func Configure(cfg model.ServerConfig) {
	if cfg.JWTSecret != "" {
		jwtSecret = []byte(cfg.JWTSecret)
	}
	if cfg.TokenTTL > 0 {
		tokenTTL = cfg.TokenTTL
	}
}

// Claims JWT 载荷
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

var errUserExists = errors.New("用户名已存在")

// memoryUsers 未连接数据库时使用的内存用户表
var memoryUsers = struct {
	sync.RWMutex
	byName map[string]*model.User
	nextID uint
}{byName: make(map[string]*model.User)}

// findUser 查找用户，数据库连接时查库
func findUser(username string) (*model.User, bool) {
	if db.Connected() {
		u, err := db.FindUser(username)
		if err != nil {
			return nil, false
		}
		return u, true
	}
	memoryUsers.RLock()
	defer memoryUsers.RUnlock()
	u, ok := memoryUsers.byName[username]
	return u, ok
}

// createUser 新建用户
func createUser(u *model.User) error {
	if db.Connected() {
		if _, err := db.FindUser(u.Username); err == nil {
			return errUserExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return db.CreateUser(u)
	}

	memoryUsers.Lock()
	defer memoryUsers.Unlock()
	if _, exists := memoryUsers.byName[u.Username]; exists {
		return errUserExists
	}
	memoryUsers.nextID++
	u.ID = memoryUsers.nextID
	memoryUsers.byName[u.Username] = u
	return nil
}

// Login 处理用户登录
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误"})
		return
	}

	user, exists := findUser(req.Username)
	if !exists || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
		return
	}

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "street-network",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成 Token 失败"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    tokenString,
		Username: user.Username,
		Message:  "登录成功",
	})
}

// Register 用户注册
func Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "密码加密失败"})
		return
	}

	newUser := &model.User{
		Username: req.Username,
		Password: hashedPassword,
		Email:    req.Email,
	}
	if err := createUser(newUser); err != nil {
		if errors.Is(err, errUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "注册成功",
		"username": newUser.Username,
	})
}

// AuthMiddleware JWT 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未提供 Token"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 Token"})
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
