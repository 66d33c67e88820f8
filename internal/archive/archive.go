// Package archive copies the pre-commit backup of the live source off host.
// The local .bak sibling stays authoritative for recovery; the archive is a
// history of every version the agent replaced.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Archiver stores one immutable object.
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte) error
}

// Nop discards everything. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(ctx context.Context, key string, body []byte) error { return nil }

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	Prefix          string
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default chain
	SecretAccessKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3 builds an archiver from the default AWS configuration chain.
func NewS3(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	return &S3Archiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, key string, body []byte) error {
	full := path.Join(a.prefix, key)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(full),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/x-go"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", full, err)
	}
	return nil
}

// BackupSync archives the backup sibling once per distinct content.
type BackupSync struct {
	archiver Archiver
	sessions domain.SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewBackupSync(a Archiver, sessions domain.SessionStore, logger *zap.Logger) *BackupSync {
	return &BackupSync{archiver: a, sessions: sessions, logger: logger, now: time.Now}
}

// Sync uploads backupPath when its digest differs from the last archived
// one and returns the object key, or "" when nothing was uploaded.
// A missing backup is not an error: the agent has not committed yet.
func (b *BackupSync) Sync(ctx context.Context, backupPath string) (string, error) {
	body, err := os.ReadFile(backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read backup: %w", err)
	}
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	sess, err := b.sessions.LoadSession(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if sess.ArchivedBackup == digest {
		return "", nil
	}

	key := fmt.Sprintf("%s-%s.go.bak", b.now().UTC().Format("20060102T150405Z"), digest[:12])
	if err := b.archiver.Archive(ctx, key, body); err != nil {
		return "", err
	}

	sess.ArchivedBackup = digest
	if err := b.sessions.SaveSession(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	b.logger.Info("archived backup", zap.String("key", key), zap.Int("bytes", len(body)))
	return key, nil
}
