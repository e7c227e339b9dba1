// Package config provides configuration parsing and validation for the
// review sender.
package config

import (
	"fmt"
)

// Config holds all configuration parameters for the review sender.
type Config struct {
	PostgresDSN string

	PendingCollection   string
	HistoryCollection   string
	TemplatesCollection string

	SenderAddress  string
	DefaultSubject string
	MailProvider   string

	AttachmentMaxBytes int64

	BlobDir  string
	S3Bucket string

	RedisAddr    string
	KafkaBrokers string
	ResultsTopic string
}

// Validate checks that all required configuration fields are set and
// consistent. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.PendingCollection == "" {
		return fmt.Errorf("pending-collection cannot be empty")
	}
	if c.HistoryCollection == "" {
		return fmt.Errorf("history-collection cannot be empty")
	}
	if c.TemplatesCollection == "" {
		return fmt.Errorf("templates-collection cannot be empty")
	}
	if c.SenderAddress == "" {
		return fmt.Errorf("sender-address cannot be empty")
	}
	if c.AttachmentMaxBytes < 0 {
		return fmt.Errorf("attachment-max-bytes cannot be negative")
	}
	if c.BlobDir == "" && c.S3Bucket == "" {
		return fmt.Errorf("one of blob-dir or s3-bucket must be set")
	}
	if c.BlobDir != "" && c.S3Bucket != "" {
		return fmt.Errorf("blob-dir and s3-bucket are mutually exclusive")
	}
	if c.KafkaBrokers != "" && c.ResultsTopic == "" {
		return fmt.Errorf("results-topic cannot be empty when kafka-brokers is set")
	}
	return nil
}
