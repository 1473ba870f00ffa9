package scan

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// zxingRecognizer runs a fixed set of gozxing readers over each frame,
// one symbol per reader at most. Readers keep internal state so passes
// are serialised.
type zxingRecognizer struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func ZXing() Recognizer {
	return &zxingRecognizer{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewCode128Reader(),
			oned.NewEAN13Reader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (r *zxingRecognizer) Recognize(ctx context.Context, frame videoframe.Frame) ([]Barcode, error) {
	img, err := frameToImage(frame)
	if err != nil {
		return nil, err
	}
	if img, err = uprightImage(img, frame.Rotation()); err != nil {
		return nil, err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, xerror.Errorf("unable to binarize frame: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	barcodes := []Barcode{}
	seen := map[string]bool{}
	for _, reader := range r.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := reader.Decode(bmp, r.hints)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, xerror.Errorf("unable to decode frame: %w", err)
		}
		if seen[result.GetText()] {
			continue
		}
		seen[result.GetText()] = true
		barcodes = append(barcodes, New(result.GetBarcodeFormat().String(), result.GetText()))
	}
	return barcodes, nil
}

func isNotFound(err error) bool {
	var notFound gozxing.NotFoundException
	var checksum gozxing.ChecksumException
	var format gozxing.FormatException
	return errors.As(err, &notFound) || errors.As(err, &checksum) || errors.As(err, &format)
}

// frameToImage accepts either OpenCV frames or frames already backed
// by a Go image.
func frameToImage(frame videoframe.Frame) (image.Image, error) {
	switch ref := frame.DataRef().(type) {
	case *gocv.Mat:
		if ref.Empty() {
			return nil, xerror.New("cannot recognize empty frame")
		}
		img, err := ref.ToImage()
		if err != nil {
			return nil, xerror.Errorf("unable to convert OpenCV mat into Go image: %w", err)
		}
		return img, nil
	case image.Image:
		return ref, nil
	}
	return nil, xerror.New("unsupported frame data for ZXing recognizer")
}

// uprightImage returns img rotated clockwise by the given degrees.
func uprightImage(img image.Image, degrees int) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	var to func(x, y int) (int, int)
	switch degrees {
	case 0:
		return img, nil
	case 90:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		to = func(x, y int) (int, int) { return h - 1 - y, x }
	case 180:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		to = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		to = func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		return nil, xerror.Errorf("unsupported frame rotation: %d", degrees)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := to(x, y)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst, nil
}

func (r *zxingRecognizer) Close() error {
	return nil
}
