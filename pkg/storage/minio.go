package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "SentriSafe/pkg/errors"
)

// RecordingStore 录音对象存储
type RecordingStore interface {
	// Save 保存录音，返回对象键
	Save(ctx context.Context, userID uint, blob []byte) (string, error)

	// Read 读取录音
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// MinioConfig MinIO 连接配置
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type minioStore struct {
	cfg MinioConfig
	cli *minio.Client
}

// NewMinioStore 创建 MinIO 录音存储
func NewMinioStore(cfg MinioConfig) (RecordingStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "create minio client")
	}
	return &minioStore{cfg: cfg, cli: cli}, nil
}

func (m *minioStore) ensureBucket(ctx context.Context) error {
	exists, err := m.cli.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return m.cli.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Save 保存录音，对象键按用户和时间生成
func (m *minioStore) Save(ctx context.Context, userID uint, blob []byte) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", apperrors.Wrapf(err, "ensure bucket %s", m.cfg.Bucket)
	}
	key := fmt.Sprintf("recordings/%d/%s.webm", userID, time.Now().UTC().Format("20060102T150405"))
	_, err := m.cli.PutObject(ctx, m.cfg.Bucket, key, bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "audio/webm"})
	if err != nil {
		return "", apperrors.Wrapf(err, "put recording %s", key)
	}
	return key, nil
}

// Read 读取录音
func (m *minioStore) Read(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := m.cli.GetObject(ctx, m.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}
	st, err := obj.Stat()
	if err != nil {
		return nil, 0, err
	}
	return obj, st.Size, nil
}
