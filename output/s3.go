package output

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI S3 上传接口
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader 把本地文件上传到 s3://bucket/prefix/
type S3Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Uploader 使用默认凭证链创建上传器
func NewS3Uploader(ctx context.Context, region, bucket, prefix string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3UploaderWithClient 使用已有的客户端
func NewS3UploaderWithClient(client PutObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Upload 逐个上传文件，对象名为 prefix/文件名
func (u *S3Uploader) Upload(ctx context.Context, files []string) error {
	for _, f := range files {
		key := path.Join(u.prefix, filepath.Base(f))
		if err := u.put(ctx, f, key); err != nil {
			return err
		}
		log.Printf("已上传: s3://%s/%s", u.bucket, key)
	}
	return nil
}

func (u *S3Uploader) put(ctx context.Context, file, key string) error {
	body, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	defer body.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("上传 %s 失败: %w", key, err)
	}
	return nil
}
