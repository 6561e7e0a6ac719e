package config

import (
	"github.com/spf13/viper"
)

type Bucket struct {
	// S3-compatible endpoint
	Endpoint string

	Region          string
	AccessKeyId     string
	AccessKeySecret string

	// Base URL under which uploaded objects are publicly reachable
	PublicBaseUrl string
}

func setBucketDefaults() {
	viper.SetDefault("Bucket.Endpoint", "")
	viper.SetDefault("Bucket.Region", "auto")
	viper.SetDefault("Bucket.AccessKeyId", "")
	viper.SetDefault("Bucket.AccessKeySecret", "")
	viper.SetDefault("Bucket.PublicBaseUrl", "")
}
