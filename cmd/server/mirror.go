package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"leafgame/internal/persistence/mirror"
)

type mirrorRuntime struct {
	enabled bool
	mirror  *mirror.Mirror
}

func buildMirrorRuntime(ctx context.Context, dataDir string, logger *logrus.Logger) (*mirrorRuntime, error) {
	if !envBool("LG_S3_MIRROR", false) {
		return &mirrorRuntime{}, nil
	}
	cfg := mirror.Config{
		Endpoint:  strings.TrimSpace(os.Getenv("LG_S3_ENDPOINT")),
		Region:    strings.TrimSpace(os.Getenv("LG_S3_REGION")),
		Bucket:    strings.TrimSpace(os.Getenv("LG_S3_BUCKET")),
		AccessKey: strings.TrimSpace(os.Getenv("LG_S3_ACCESS_KEY_ID")),
		SecretKey: strings.TrimSpace(os.Getenv("LG_S3_SECRET_ACCESS_KEY")),
		PathStyle: envBool("LG_S3_PATH_STYLE", false),
	}
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("LG_S3_MIRROR=true but LG_S3_BUCKET/LG_S3_ACCESS_KEY_ID/LG_S3_SECRET_ACCESS_KEY are not fully set")
	}
	client, err := mirror.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m := mirror.New(client, dataDir, mirror.Options{
		Prefix:  strings.TrimSpace(os.Getenv("LG_S3_PREFIX")),
		Workers: envInt("LG_S3_UPLOAD_WORKERS", 2),
	}, logger)
	logger.WithField("bucket", cfg.Bucket).Info("snapshot mirror enabled")
	return &mirrorRuntime{enabled: true, mirror: m}, nil
}

func (r *mirrorRuntime) Close() {
	if r == nil || r.mirror == nil {
		return
	}
	r.mirror.Close()
}

func (r *mirrorRuntime) Enqueue(localPath string) {
	if r == nil || !r.enabled {
		return
	}
	r.mirror.Enqueue(localPath)
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
