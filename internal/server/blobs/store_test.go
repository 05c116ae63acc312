package blobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("cipher")
	require.NoError(t, s.Put(ctx, "id1", data, "text/plain"))
	data[0] = 'X'

	got, err := s.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cipher"), got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	getErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Bucket+"/"+*in.Key] = b
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func newFakeS3Store() (*S3Store, *fakeS3) {
	f := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	return &S3Store{client: f, bucket: "healthkey"}, f
}

func TestS3Store_PutGet(t *testing.T) {
	ctx := context.Background()
	s, f := newFakeS3Store()

	require.NoError(t, s.Put(ctx, "abc", []byte("payload"), "image/png"))
	assert.Contains(t, f.objects, "healthkey/tx/abc")
	assert.Equal(t, "image/png", f.types["tx/abc"])

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestS3Store_NotFound(t *testing.T) {
	s, _ := newFakeS3Store()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()
	s, f := newFakeS3Store()

	f.putErr = errors.New("boom")
	err := s.Put(ctx, "abc", []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 put")

	f.getErr = errors.New("boom")
	_, err = s.Get(ctx, "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1"})
	require.Error(t, err)
}

func TestNewS3Store_OK(t *testing.T) {
	s, err := NewS3Store(context.Background(), S3Options{
		Region: "us-east-1", AccessKey: "a", SecretKey: "b",
		Bucket: "healthkey", BaseEndpoint: "http://127.0.0.1:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "healthkey", s.bucket)
}
