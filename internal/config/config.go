package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string `envconfig:"LISTEN_ADDR"`
	Port       string `envconfig:"PORT" default:"8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"release"`

	DBDriver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"nhatro.db"`
	DatabaseDSN  string `envconfig:"DATABASE_DSN"`

	SessionSecret string `envconfig:"SESSION_SECRET" default:"nhatro-dev-secret"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// S3 对象存储，Bucket 为空时回退到本地目录存储
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	UploadDir     string `envconfig:"UPLOAD_DIR" default:"web/static/uploads"`
	UploadURLPath string `envconfig:"UPLOAD_URL_PATH" default:"/static/uploads"`
}

// Addr 返回 HTTP 监听地址，优先使用 LISTEN_ADDR。
func (c *AppConfig) Addr() string {
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return fmt.Sprintf(":%s", c.Port)
}

// DSN 返回数据库连接串；sqlite 模式下即数据库文件路径。
func (c *AppConfig) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseDSN
	}
	return c.DatabasePath
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
