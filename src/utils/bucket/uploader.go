package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	cfg "github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// Uploader publishes JSON documents (NFT metadata) to an S3-compatible
// bucket and returns their public URL
type Uploader struct {
	client       *s3.Client
	bucketConfig *cfg.Bucket
	log          *logrus.Entry
}

func NewUploader(ctx context.Context, bucketConfig *cfg.Bucket) (self *Uploader, err error) {
	self = new(Uploader)
	self.bucketConfig = bucketConfig
	self.log = logger.NewSublogger("bucket")

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(bucketConfig.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			bucketConfig.AccessKeyId, bucketConfig.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load bucket config: %w", err)
	}

	self.client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if bucketConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(bucketConfig.Endpoint)
			o.UsePathStyle = true
		}
	})
	return
}

// UploadJson marshals the payload and uploads it under key, returning the
// public URL of the object
func (self *Uploader) UploadJson(ctx context.Context, bucket, key string, payload interface{}) (url string, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = self.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to bucket: %w", err)
	}

	url = fmt.Sprintf("%s/%s/%s", self.bucketConfig.PublicBaseUrl, bucket, key)
	self.log.WithField("url", url).Debug("Uploaded JSON payload")
	return
}
