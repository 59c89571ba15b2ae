package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
)

// Long edge cap for stored product photos.
const maxPhotoEdge = 1600

// PhotoStore keeps product images in an S3 bucket.
type PhotoStore struct {
	client *s3.Client
	bucket string
	region string
}

var photoStore *PhotoStore

func initPhotoStore() {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		log.Println("AWS_BUCKET_NAME not set; product photo upload disabled")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := newPhotoStore(ctx, bucket, os.Getenv("AWS_REGION"))
	if err != nil {
		log.Fatal("failed to init photo store:", err)
	}
	photoStore = store
}

func newPhotoStore(ctx context.Context, bucket, region string) (*PhotoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &PhotoStore{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// UploadPhoto stores one already-normalized image under products/. Returns
// the public URL and the object key. Decoding happens in normalizePhoto so
// callers can tell bad input apart from a storage failure.
func (p *PhotoStore) UploadPhoto(ctx context.Context, fileName string, body []byte, contentType string) (url, key string, err error) {
	key = fmt.Sprintf("products/%d-%s", time.Now().UnixNano(), filepath.Base(fileName))
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", err
	}
	url = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
	return url, key, nil
}

// DeletePhotos removes stored objects in a single batched call.
func (p *PhotoStore) DeletePhotos(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
	}
	_, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(p.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	return err
}

// normalizePhoto decodes the upload, downsizes anything larger than
// maxPhotoEdge and re-encodes as JPEG. Non-image input is rejected here
// rather than at the bucket.
func normalizePhoto(r io.Reader, fileName string) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unsupported image %s: %w", filepath.Base(fileName), err)
	}
	b := img.Bounds()
	if b.Dx() > maxPhotoEdge || b.Dy() > maxPhotoEdge {
		img = imaging.Fit(img, maxPhotoEdge, maxPhotoEdge, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
