// Package pdfsvc draws artifact documents with gofpdf.
package pdfsvc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/artifact"
)

const (
	qrPixels     = 256
	imageTimeout = 5 * time.Second
)

type Renderer struct {
	logger core.Logger
	client *http.Client
}

func NewRenderer(logger core.Logger) *Renderer {
	if logger == nil {
		logger = core.NopLogger
	}
	return &Renderer{logger: logger, client: &http.Client{Timeout: imageTimeout}}
}

// drawing holds the state of one Render call.
type drawing struct {
	*Renderer
	ctx    context.Context
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	images int
}

// Render writes doc as PDF to w.
func (r *Renderer) Render(ctx context.Context, doc artifact.Document, w io.Writer) error {
	size := doc.Size
	if size.W <= 0 || size.H <= 0 {
		size = artifact.A4
	}
	orientation := "P"
	if size.W > size.H {
		orientation = "L"
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: size.W, Ht: size.H},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(core.Conf.AppName, true)

	d := &drawing{Renderer: r, ctx: ctx, pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")} // cp1252
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, region := range page.Regions {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.draw(region)
			if err := pdf.Error(); err != nil {
				return errors.Wrapf(err, "drawing %T", region)
			}
		}
	}
	return errors.Wrap(pdf.Output(w), "writing pdf")
}

// RenderBytes renders doc in memory.
func (r *Renderer) RenderBytes(ctx context.Context, doc artifact.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(ctx, doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *drawing) draw(region artifact.Region) {
	switch v := region.(type) {
	case artifact.Box:
		d.box(v)
	case artifact.Text:
		d.text(v)
	case artifact.Image:
		d.image(v)
	case artifact.QR:
		d.qr(v)
	case artifact.Watermark:
		d.watermark(v)
	default:
		d.logger.Warn(fmt.Sprintf("unknown region %T", region))
	}
}

func (d *drawing) box(b artifact.Box) {
	var style string
	if b.Fill != nil {
		d.pdf.SetFillColor(b.Fill.R, b.Fill.G, b.Fill.B)
		style += "F"
	}
	if b.Border != nil {
		d.pdf.SetDrawColor(b.Border.R, b.Border.G, b.Border.B)
		lw := b.LineWidth
		if lw <= 0 {
			lw = 0.2
		}
		d.pdf.SetLineWidth(lw)
		style += "D"
	}
	if style == "" {
		return
	}
	if b.Rounded {
		radius := b.Radius
		if radius <= 0 {
			radius = 2
		}
		d.pdf.RoundedRect(b.X, b.Y, b.W, b.H, radius, "1234", style)
		return
	}
	d.pdf.Rect(b.X, b.Y, b.W, b.H, style)
}

func (d *drawing) setFont(font, style string, size float64) {
	if font == "" {
		font = "Helvetica"
	}
	if size <= 0 {
		size = 10
	}
	d.pdf.SetFont(font, style, size)
}

func (d *drawing) text(t artifact.Text) {
	d.setFont(t.Font, t.Style, t.Size)
	d.pdf.SetTextColor(t.Color.R, t.Color.G, t.Color.B)
	lineH := t.H
	if lineH <= 0 {
		_, fontSize := d.pdf.GetFontSize()
		lineH = fontSize * 1.25
	}
	align := t.Align
	if align == "" {
		align = artifact.AlignLeft
	}
	w := t.W
	if w <= 0 {
		pageW, _ := d.pdf.GetPageSize()
		w = pageW - t.X
	}
	d.pdf.SetXY(t.X, t.Y)
	d.pdf.MultiCell(w, lineH, d.tr(t.Content), "", align, false)
}

func (d *drawing) watermark(wm artifact.Watermark) {
	size := wm.Size
	if size <= 0 {
		size = 40
	}
	alpha := wm.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.1
	}
	d.setFont("Helvetica", artifact.StyleBold, size)
	d.pdf.SetTextColor(wm.Color.R, wm.Color.G, wm.Color.B)
	d.pdf.SetAlpha(alpha, "Normal")
	d.pdf.TransformBegin()
	d.pdf.TransformRotate(wm.Angle, wm.X, wm.Y)
	d.pdf.Text(wm.X, wm.Y, d.tr(wm.Content))
	d.pdf.TransformEnd()
	d.pdf.SetAlpha(1, "Normal")
}

// imageType maps sniffed content to the gofpdf image types.
func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

func (d *drawing) load(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(d.ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		res, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, errors.Errorf("fetching image: status %d", res.StatusCode)
		}
		return io.ReadAll(res.Body)
	}
	return os.ReadFile(path)
}

// placeImage registers data and draws it in rect. Failures are logged and skipped.
func (d *drawing) placeImage(data []byte, rect artifact.Rect, source string) {
	tp := imageType(data)
	if tp == "" {
		d.logger.Warn("skipping image: unsupported format", map[string]interface{}{"source": source})
		return
	}
	if tp == "PNG" {
		// gofpdf only reads 8-bit PNGs
		var err error
		if data, err = to8Bit(data); err != nil {
			d.logger.Warn("skipping image", err, map[string]interface{}{"source": source})
			return
		}
	}
	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := gofpdf.ImageOptions{ImageType: tp}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		d.pdf.ClearError()
		d.logger.Warn("skipping image", err, map[string]interface{}{"source": source})
		return
	}
	d.pdf.ImageOptions(name, rect.X, rect.Y, rect.W, rect.H, false, opts, 0, "")
}

// to8Bit re-encodes a 16-bit PNG with 8 bits per channel. Other PNGs are returned as is.
func to8Bit(data []byte) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decoding png")
	}
	if !is16Bit(cfg.ColorModel) {
		return data, nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decoding png")
	}
	return encodePNG(img)
}

func is16Bit(m color.Model) bool {
	switch m {
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
		return true
	}
	return false
}

// encodePNG writes img as an 8-bit PNG, gray when img is gray.
func encodePNG(img image.Image) ([]byte, error) {
	var dst draw.Image
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		dst = image.NewGray(img.Bounds())
	default:
		dst = image.NewNRGBA(img.Bounds())
	}
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, errors.Wrap(err, "encoding png")
	}
	return buf.Bytes(), nil
}

func (d *drawing) image(img artifact.Image) {
	data := img.Data
	if len(data) == 0 {
		if img.Path == "" {
			return
		}
		var err error
		if data, err = d.load(img.Path); err != nil {
			d.logger.Warn("skipping image", err, map[string]interface{}{"source": img.Path})
			return
		}
	}
	d.placeImage(data, img.Rect, img.Path)
}

func (d *drawing) qr(q artifact.QR) {
	side := q.W
	if q.H > 0 && q.H < side {
		side = q.H
	}
	data, err := QRCode(q.Payload)
	if err != nil {
		d.logger.Warn("skipping qr code", err, map[string]interface{}{"payload": q.Payload})
		return
	}
	d.placeImage(data, artifact.Rect{X: q.X, Y: q.Y, W: side, H: side}, "qr:"+q.Payload)
}

// QRCode encodes payload as an 8-bit gray PNG QR code.
func QRCode(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	code, err = barcode.Scale(code, qrPixels, qrPixels)
	if err != nil {
		return nil, errors.Wrap(err, "scaling qr code")
	}
	return encodePNG(code)
}
