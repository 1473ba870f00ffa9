package videobackend

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 640
	cardHeight = 480
	codeSize   = 240
)

// mockVideoBackend streams a rendered card holding a QR code instead of
// camera footage, so the whole scan pipeline runs without hardware.
// Addresses look like mock://<title>?payload=<value>.
type mockVideoBackend struct{}

func (b *mockVideoBackend) Connect(cancel context.Context, addr string) (Connection, error) {
	title, payload := parseMockAddress(addr)
	code, err := renderCode(payload)
	if err != nil {
		return nil, err
	}
	return &mockVideoConnection{title: title, code: code}, nil
}

func (b *mockVideoBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func (b *mockVideoBackend) NewSnapshotWriter() SnapshotWriter {
	return openCVSnapshotWriter{}
}

func parseMockAddress(addr string) (title, payload string) {
	title = addr
	if u, err := url.Parse(addr); err == nil && u.Scheme == "mock" {
		title = strings.TrimPrefix(u.Host+u.Path, "/")
		payload = u.Query().Get("payload")
	}
	if len(payload) == 0 {
		payload = "scandaemon:" + title
	}
	return title, payload
}

type mockVideoConnection struct {
	uuid  string
	title string
	code  image.Image
}

func (mvc *mockVideoConnection) UUID() string {
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockVideoConnection) Read(frame videoframe.Frame) error {
	dst, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to MockVideo connection read")
	}

	card, err := renderCard(mvc.title, mvc.code, time.Now())
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(card)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()
	mat.CopyTo(dst)
	return nil
}

func (mvc *mockVideoConnection) IsOpen() bool {
	return true
}

func (mvc *mockVideoConnection) Close() error {
	return nil
}

func renderCode(payload string) (image.Image, error) {
	code, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, codeSize, codeSize, nil)
	if err != nil {
		return nil, xerror.Errorf("unable to encode offline stream payload: %w", err)
	}
	return code, nil
}

// renderCard draws the camera title and clock above the QR code on a
// light background, dark text keeps the code's quiet zone intact.
func renderCard(title string, code image.Image, now time.Time) (*image.RGBA, error) {
	card := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(card, card.Bounds(), image.NewUniform(color.Gray{Y: 235}), image.Point{}, draw.Src)

	at := image.Pt((cardWidth-codeSize)/2, cardHeight-codeSize-20)
	draw.Draw(card, image.Rectangle{Min: at, Max: at.Add(image.Pt(codeSize, codeSize))}, code, image.Point{}, draw.Src)

	if err := drawText(card, 20, 60, 40, title); err != nil {
		return nil, err
	}
	if err := drawText(card, 20, 120, 28, now.Format("2006-01-02 15:04:05.000")); err != nil {
		return nil, err
	}
	return card, nil
}

var (
	cardFontOnce sync.Once
	cardFont     *truetype.Font
	cardFontErr  error
)

func drawText(canvas *image.RGBA, x, baseline int, size float64, text string) error {
	cardFontOnce.Do(func() { cardFont, cardFontErr = freetype.ParseFont(goregular.TTF) })
	if cardFontErr != nil {
		return xerror.Errorf("unable to draw text onto offline stream card: %w", cardFontErr)
	}

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Gray{Y: 30}),
		Face: truetype.NewFace(cardFont, &truetype.Options{Size: size, Hinting: font.HintingFull}),
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
	return nil
}
