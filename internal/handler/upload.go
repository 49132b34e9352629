package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nhatro/internal/service"
)

const (
	thumbnailFolder = "nhatro/thumbnails"
	detailFolder    = "nhatro/details"

	// 详情图数量上限与服务层共用同一常量
	maxDetailImages = service.MaxArticleImages
	maxImageBytes   = 10 << 20
)

var (
	errNotAnImage   = errors.New("uploaded file is not a decodable image")
	errImageTooBig  = errors.New("uploaded image exceeds the size limit")
	errTooManyFiles = errors.New("too many detail images")
)

// storeImage 校验并上传单张图片，返回公开访问 URL。
// 文件名采用 日期-uuid 形式避免冲突。
func (a *API) storeImage(c *gin.Context, header *multipart.FileHeader, folder string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxImageBytes {
		return "", errImageTooBig
	}

	// 按内容而不是扩展名判断是否为图片
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", errNotAnImage
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "application/octet-stream"
	}

	ext := filepath.Ext(header.Filename)
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)

	return a.store.Upload(c.Request.Context(), folder, name, data, contentType)
}

// storeDetailImages 上传一组详情图，超出数量限制时整体拒绝。
func (a *API) storeDetailImages(c *gin.Context, headers []*multipart.FileHeader) ([]string, error) {
	if len(headers) > maxDetailImages {
		return nil, errTooManyFiles
	}

	urls := make([]string, 0, len(headers))
	for _, header := range headers {
		url, err := a.storeImage(c, header, detailFolder)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
