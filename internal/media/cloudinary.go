package media

import (
	"context" // Upload cancellation
	"errors"  // Error values
	"fmt"     // Error wrapping

	"github.com/cloudinary/cloudinary-go/v2"              // Cloudinary client
	"github.com/cloudinary/cloudinary-go/v2/api/uploader" // Upload parameters
)

// CloudinaryStore uploads slips to Cloudinary and keeps the secure URL
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string // Remote folder for every slip
}

// NewCloudinaryStore builds a client from account credentials
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

// Save uploads the temporary file and returns its https URL
func (s *CloudinaryStore) Save(ctx context.Context, tempPath, _ string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, tempPath, uploader.UploadParams{Folder: s.folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message) // API level rejection
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure_url")
	}
	return res.SecureURL, nil
}
