package file

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	uploadTimeout = 30 * time.Second

	// KYCFolder keeps identity documents apart from anything public.
	KYCFolder = "splitsy/kyc"
)

type Uploader interface {
	UploadFile(r io.Reader, folder, publicID string) (string, error)
}

type FileUploader struct {
	cld *cloudinary.Cloudinary
}

func New(cloudName, apiKey, apiSecret string) (*FileUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}

	return &FileUploader{cld: cld}, nil
}

// UploadFile stores r as an authenticated asset, so the returned URL only
// resolves through a signed delivery URL.
func (f *FileUploader) UploadFile(r io.Reader, folder, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	uploadResult, err := f.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:    folder,
		PublicID:  publicID,
		Type:      api.Authenticated,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}

	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("upload to cloudinary: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}
