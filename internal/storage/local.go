package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
)

// LocalStore 把上传文件写入本地目录，用于未配置对象存储的开发环境。
type LocalStore struct {
	dir     string
	urlPath string
}

// NewLocalStore 创建本地目录存储，dir 为磁盘目录，urlPath 为对外暴露的 URL 前缀。
func NewLocalStore(dir, urlPath string) *LocalStore {
	return &LocalStore{dir: dir, urlPath: urlPath}
}

// Upload 保存文件到本地目录并返回静态访问路径。
func (l *LocalStore) Upload(_ context.Context, folder, filename string, data []byte, _ string) (string, error) {
	target := filepath.Join(l.dir, folder)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(target, filename), data, 0o644); err != nil {
		return "", err
	}

	return path.Join(l.urlPath, folder, filename), nil
}
