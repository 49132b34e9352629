package storage

import "context"

// ObjectStore 将二进制数据写入对象存储并返回可公开访问的 URL。
// folder 用于区分缩略图与详情图等用途。
type ObjectStore interface {
	Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error)
}
