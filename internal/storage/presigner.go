package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	UploadExpiry      = 15 * time.Minute
	keyTimeLayout     = "2006-01-02T15-04-05"
	uploadContentType = "application/pdf"
)

type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
	Message   string    `json:"message"`
}

// PresignAPI is the subset of *s3.PresignClient used here.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner issues time-limited PUT URLs for registration documents. With a nil
// client it returns a deterministic simulated URL and never calls AWS.
type Presigner struct {
	client PresignAPI
	bucket string
	log    *slog.Logger
	now    func() time.Time
}

func NewS3Presigner(client *s3.Client, bucket string, log *slog.Logger) *Presigner {
	return NewPresigner(s3.NewPresignClient(client), bucket, log)
}

func NewSimulatedPresigner(bucket string, log *slog.Logger) *Presigner {
	return NewPresigner(nil, bucket, log)
}

func NewPresigner(client PresignAPI, bucket string, log *slog.Logger) *Presigner {
	if log == nil {
		log = slog.Default()
	}
	return &Presigner{client: client, bucket: bucket, log: log, now: time.Now}
}

func (p *Presigner) Simulated() bool {
	return p.client == nil
}

func FileKey(registrationID, documentType string, at time.Time) string {
	return fmt.Sprintf("registrations/%s/%s_%s.pdf", registrationID, documentType, at.UTC().Format(keyTimeLayout))
}

func (p *Presigner) PresignUpload(ctx context.Context, registrationID, documentType string) (UploadURL, error) {
	now := p.now()
	key := FileKey(registrationID, documentType, now)
	expiresAt := now.Add(UploadExpiry).UTC()

	if p.client == nil {
		p.log.InfoContext(ctx, "storage.presign.simulated", "file_key", key)
		return UploadURL{
			UploadURL: fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=%d",
				p.bucket, key, int(UploadExpiry.Seconds())),
			FileKey:   key,
			ExpiresAt: expiresAt,
			Message:   "Simulated URL generated. In production this is a real S3 URL.",
		}, nil
	}

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(uploadContentType),
	}, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		return UploadURL{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	p.log.InfoContext(ctx, "storage.presign.issued", "file_key", key)
	return UploadURL{
		UploadURL: req.URL,
		FileKey:   key,
		ExpiresAt: expiresAt,
		Message:   "Upload URL generated. Valid for 15 minutes.",
	}, nil
}
