package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor(t *testing.T) {
	t.Parallel()
	p := Processor{MaxBytes: 2 << 20}

	out, err := p.Process(bytes.NewReader(pngBytes(t, 300, 120)), AvatarShape)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
	assert.Equal(t, "image/jpeg", httpType(out))

	out, err = p.Process(bytes.NewReader(pngBytes(t, 64, 64)), ProductShape)
	require.NoError(t, err)
	img, err = imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 2000, img.Bounds().Dx())
	assert.Equal(t, 1333, img.Bounds().Dy())
}

func TestProcessor_Rejects(t *testing.T) {
	t.Parallel()

	_, err := Processor{MaxBytes: 1 << 20}.Process(strings.NewReader("%PDF-1.4 not an image"), AvatarShape)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgOnlyImages, e.Message)

	_, err = Processor{MaxBytes: 100}.Process(bytes.NewReader(pngBytes(t, 64, 64)), AvatarShape)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// a PNG header with a broken body sniffs as an image but does not decode
	broken := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	_, err = Processor{MaxBytes: 1 << 20}.Process(bytes.NewReader(broken), AvatarShape)
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgOnlyImages, e.Message)
}

func TestDiskStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	folder := ProductFolder(uuid.New())
	url, err := s.Store(ctx, []byte("jpeg"), folder, "0")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+folder+"/0.jpg", url)

	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(folder), "0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(b))

	require.NoError(t, s.DeleteFolder(ctx, folder))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(folder)))
	assert.True(t, os.IsNotExist(err))

	_, err = s.Store(ctx, []byte("x"), "../outside", "a")
	assert.Error(t, err)
	assert.Error(t, s.DeleteFolder(ctx, ""))
}

func TestHumanBytes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2MB", humanBytes(2<<20))
	assert.Equal(t, "1536KB", humanBytes(1536<<10))
	assert.Equal(t, "100B", humanBytes(100))
}

func httpType(b []byte) string {
	if bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}) {
		return "image/jpeg"
	}
	return "other"
}
