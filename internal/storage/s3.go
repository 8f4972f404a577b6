package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/usage"
)

var s3Client *s3.Client
var s3Bucket string
var s3Region string

func InitS3() error {
	s3Bucket = os.Getenv("AWS_BUCKET_NAME")
	s3Region = os.Getenv("AWS_REGION")

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(s3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	s3Client = s3.NewFromConfig(cfg)
	return nil
}

// UploadMedia stores a content file under the owner's namespace and returns
// its public URL. The per-user key prefix is what the usage aggregator sums
// over.
func UploadMedia(file multipart.File, userID, filename, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s", userID, filename)

	_, err := s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s3Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s3Bucket, s3Region, key)
	return publicURL, nil
}

func DeleteMedia(key string) error {
	_, err := s3Client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(s3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("S3 delete failed: %w", err)
	}
	return nil
}

// ObjectLister pages the bucket for the usage aggregator.
type ObjectLister struct{}

func NewObjectLister() ObjectLister {
	return ObjectLister{}
}

func (ObjectLister) List(ctx context.Context, prefix, cursor string, limit int32) ([]usage.Object, string, error) {
	if s3Client == nil {
		return nil, "", fmt.Errorf("object storage not initialized")
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s3Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(limit),
	}
	if cursor != "" {
		input.ContinuationToken = aws.String(cursor)
	}

	out, err := s3Client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("listing objects: %w", err)
	}

	objs := make([]usage.Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		objs = append(objs, usage.Object{
			Key:  aws.ToString(obj.Key),
			Size: obj.Size,
		})
	}

	next := ""
	if aws.ToBool(out.IsTruncated) {
		next = aws.ToString(out.NextContinuationToken)
	}
	return objs, next, nil
}
