package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func quiet() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

type fakePresign struct {
	input   *s3.PutObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresign) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = in
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + aws.ToString(in.Key), Method: "PUT"}, nil
}

func TestFileKey(t *testing.T) {
	got := FileKey("0b6e2c9e-0000-4000-8000-000000000001", "insurance", fixedNow)
	assert.Equal(t, "registrations/0b6e2c9e-0000-4000-8000-000000000001/insurance_2024-05-06T07-08-09.pdf", got)
}

func TestPresigner_Simulated(t *testing.T) {
	p := NewSimulatedPresigner("fleet-documents", quiet())
	p.now = func() time.Time { return fixedNow }
	require.True(t, p.Simulated())

	out, err := p.PresignUpload(context.Background(), "abc", "document")
	require.NoError(t, err)

	assert.Equal(t, "registrations/abc/document_2024-05-06T07-08-09.pdf", out.FileKey)
	assert.Equal(t, fixedNow.Add(15*time.Minute), out.ExpiresAt)

	u, err := url.Parse(out.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "fleet-documents.s3.amazonaws.com", u.Host)
	assert.Equal(t, "/"+out.FileKey, u.Path)
	assert.Equal(t, "AWS4-HMAC-SHA256", u.Query().Get("X-Amz-Algorithm"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}

func TestPresigner_S3(t *testing.T) {
	client := &fakePresign{}
	p := NewPresigner(client, "fleet-documents", quiet())
	p.now = func() time.Time { return fixedNow }

	out, err := p.PresignUpload(context.Background(), "abc", "title")
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "fleet-documents", aws.ToString(client.input.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(client.input.ContentType))
	assert.Equal(t, UploadExpiry, client.expires)
	assert.Equal(t, "https://signed.example/"+out.FileKey, out.UploadURL)
}

func TestPresigner_S3Error(t *testing.T) {
	boom := errors.New("no credentials")
	p := NewPresigner(&fakePresign{err: boom}, "b", quiet())

	_, err := p.PresignUpload(context.Background(), "abc", "title")
	assert.ErrorIs(t, err, boom)
}
