package uploader

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"course_commerce/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// Uploader 文件上传接口，发票 PDF、课程封面等静态资产都走这里
type Uploader interface {
	UploadFile(file *multipart.FileHeader) (string, error)
	UploadStream(name string, r io.Reader) (string, error)
}

type AliyunOSSUploader struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader() (*AliyunOSSUploader, error) {
	cfg := config.GlobalConfig.OSS
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) UploadFile(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// 生成唯一文件名: YYYYMMDD/uuid.ext
	ext := filepath.Ext(file.Filename)
	name := fmt.Sprintf("%s/%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)

	return u.UploadStream(name, src)
}

// UploadStream 按给定对象名上传，返回公开访问 URL
func (u *AliyunOSSUploader) UploadStream(name string, r io.Reader) (string, error) {
	if err := u.bucket.PutObject(name, r); err != nil {
		return "", err
	}

	// 假设 bucket 为 public-read 或走 CDN；私有 bucket 需要签名 URL
	url := fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, name)
	return url, nil
}

// GlobalUploader 全局上传器实例
var GlobalUploader Uploader

func InitUploader() error {
	up, err := NewAliyunOSSUploader()
	if err != nil {
		return err
	}
	GlobalUploader = up
	return nil
}
