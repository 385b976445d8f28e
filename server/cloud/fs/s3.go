// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Filesystem struct {
	svc    *s3.S3
	bucket string
}

func NewS3Filesystem(session *session.Session, bucket string) (*S3Filesystem, error) {
	if bucket == "" {
		return nil, errors.New("missing bucket")
	}
	return &S3Filesystem{svc: s3.New(session), bucket: bucket}, nil
}

func (s3Filesystem *S3Filesystem) ReadAsset(ctx context.Context, key string) ([]byte, error) {
	output, err := s3Filesystem.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3Filesystem.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("s3://%s/%s: %w", s3Filesystem.bucket, key, ErrNotFound)
		}
		return nil, err
	}
	defer output.Body.Close()
	return io.ReadAll(output.Body)
}

var s3ContentTypes = map[string]string{
	".json": "application/json",
	".zst":  "application/zstd",
}

func (s3Filesystem *S3Filesystem) WriteAsset(ctx context.Context, key string, data []byte) error {
	readSeeker := bytes.NewReader(data)

	// Patch S3's limited vocabulary of default content types
	var contentType *string
	for ext, mime := range s3ContentTypes {
		if strings.HasSuffix(key, ext) {
			contentType = aws.String(mime)
			break
		}
	}

	_, err := s3Filesystem.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s3Filesystem.bucket),
		Key:          aws.String(key),
		Body:         readSeeker,
		CacheControl: aws.String("no-transform, public, max-age=86400"),
		ContentType:  contentType,
	})
	return err
}
