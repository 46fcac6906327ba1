package media

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

// Shape is the target box an upload is cropped to.
type Shape struct {
	Width, Height int
}

var (
	ProductShape = Shape{Width: 2000, Height: 1333}
	AvatarShape  = Shape{Width: 500, Height: 500}
)

const jpegQuality = 90

type Processor struct {
	MaxBytes int64
}

// Process reads one upload, rejects anything that is not an image or is
// larger than MaxBytes, and returns it as a cropped JPEG.
func (p Processor) Process(r io.Reader, shape Shape) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media: read upload: %w", err)
	}
	if int64(len(raw)) > p.MaxBytes {
		return nil, apperr.Validationf("Image is too large, the limit is %s", humanBytes(p.MaxBytes))
	}
	if !strings.HasPrefix(http.DetectContentType(raw), "image/") {
		return nil, apperr.Validation(MsgOnlyImages)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, MsgOnlyImages, err)
	}
	img = imaging.Fill(img, shape.Width, shape.Height, imaging.Center, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("media: encode: %w", err)
	}
	return out.Bytes(), nil
}

func humanBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	if n >= 1<<10 {
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%dB", n)
}
