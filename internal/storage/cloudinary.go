package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary uploads blobs to a Cloudinary account. Buckets map to folders.
type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

// NewCloudinary builds a client from account credentials.
func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: cloudinary: %w", err)
	}
	return &Cloudinary{CLD: cld}, nil
}

// Put uploads r as an image with public id bucket/key minus its extension.
func (c *Cloudinary) Put(ctx context.Context, bucket, key string, r io.Reader, _ string) (Object, error) {
	k, err := cleanKey(bucket, key)
	if err != nil {
		return Object{}, err
	}
	publicID := strings.TrimSuffix(k, path.Ext(k))
	resp, err := c.CLD.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         bucket,
		PublicID:       publicID,
		ResourceType:   "image",
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return Object{}, fmt.Errorf("storage: cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return Object{}, fmt.Errorf("storage: cloudinary upload: %s", resp.Error.Message)
	}
	return Object{URL: resp.SecureURL, Path: k}, nil
}
