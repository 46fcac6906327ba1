// Package media validates, resizes and stores uploaded images.
package media

import (
	"context"
	"fmt"
	"path"
)

const (
	MsgOnlyImages    = "Please upload only images"
	MaxProductImages = 5
)

// Store keeps processed images and hands back their public URL.
type Store interface {
	Store(ctx context.Context, data []byte, folder, name string) (string, error)
	DeleteFolder(ctx context.Context, folder string) error
}

func ProductFolder(id fmt.Stringer) string { return path.Join("products", id.String()) }

// ProductRevisionFolder is a sibling of ProductFolder holding a replacement
// image set until the product row points at it.
func ProductRevisionFolder(id fmt.Stringer, rev string) string {
	return path.Join("products", id.String()+"-"+rev)
}

func UserFolder(id fmt.Stringer) string { return path.Join("users", id.String()) }
