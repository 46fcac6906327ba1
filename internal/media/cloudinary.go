package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloud, key, secret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloud, key, secret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Store(ctx context.Context, data []byte, folder, name string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         folder,
		PublicID:       name,
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", apperr.Upstream("Image upload failed", err)
	}
	if res.Error.Message != "" {
		return "", apperr.Upstream("Image upload failed: "+res.Error.Message, nil)
	}
	return res.SecureURL, nil
}

// DeleteFolder removes the assets first; cloudinary refuses to drop a
// folder that still has content.
func (s *CloudinaryStore) DeleteFolder(ctx context.Context, folder string) error {
	if _, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix: api.CldAPIArray{folder + "/"},
	}); err != nil {
		return apperr.Upstream("Image cleanup failed", err)
	}
	res, err := s.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder})
	if err != nil {
		return apperr.Upstream("Image cleanup failed", err)
	}
	// a folder that never got an upload does not exist remotely
	if msg := res.Error.Message; msg != "" && !strings.Contains(strings.ToLower(msg), "find folder") {
		return apperr.Upstream("Image cleanup failed: "+msg, nil)
	}
	return nil
}
