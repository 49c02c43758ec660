package pdfsvc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/artifact"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
)

type loggerMock struct {
	mu    sync.Mutex
	warns []string
}

func (l *loggerMock) Debug(string, ...interface{}) {}
func (l *loggerMock) Info(string, ...interface{})  {}
func (l *loggerMock) Error(string, ...interface{}) {}
func (l *loggerMock) Fatal(string, ...interface{}) {}
func (l *loggerMock) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func participant() seminarist.Participant {
	return seminarist.Participant{
		ID: 1, Matricule: "KIAM-2026-0001", Nom: "Koné", Prenom: "Awa", Sexe: "F", Age: 14,
		NiveauAcademique: "3e", Dortoir: "D1", ContactParent: "+225 0102030405",
		Allergie: "Arachides", AntecedentMedical: seminarist.DefaultMedical,
	}
}

func TestRender(t *testing.T) {
	b := grading.Bulletin{
		Matricule: "KIAM-2026-0001", Nom: "Koné", Prenom: "Awa", MoyenneGenerale: 15.5, Rang: 1,
		Notes: []grading.Note{{ID: 1, Libelle: grading.LibelleConduite, Note: 15.5, Observation: "Très appliquée"}},
	}
	tests := []struct {
		name      string
		doc       artifact.Document
		wantPages int
	}{
		{name: "badge", doc: artifact.Badge(participant()), wantPages: 2},
		{name: "bulletin", doc: artifact.BulletinSheet(b, nil), wantPages: 1},
		{name: "certificate", doc: artifact.Certificate(participant(), b), wantPages: 1},
		{name: "registration", doc: artifact.RegistrationForm(participant()), wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(loggerMock)
			data, err := NewRenderer(logger).RenderBytes(context.Background(), tt.doc)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
			assert.Equal(t, tt.wantPages, bytes.Count(data, []byte("/Type /Page\n")))
			assert.Empty(t, logger.warns, "qr codes and missing photos render without warnings")
		})
	}
}

func TestRenderImages(t *testing.T) {
	qrPNG, err := QRCode("KIAM-2026-0001")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/photo.png" {
			_, _ = w.Write(qrPNG)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	photo16 := image.NewRGBA64(image.Rect(0, 0, 8, 8))
	gray16 := image.NewGray16(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			photo16.SetRGBA64(x, y, color.RGBA64{R: 0xffff, G: uint16(x) << 12, B: uint16(y) << 12, A: 0xffff})
			gray16.SetGray16(x, y, color.Gray16{Y: uint16(x*y) << 10})
		}
	}
	rgb16PNG, gray16PNG := encode(t, photo16), encode(t, gray16)

	tests := []struct {
		name      string
		img       artifact.Image
		wantWarns int
	}{
		{name: "inline png", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Data: qrPNG}},
		{name: "remote png", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Path: srv.URL + "/photo.png"}},
		{name: "16-bit rgb png", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Data: rgb16PNG}},
		{name: "16-bit gray png", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Data: gray16PNG}},
		{name: "no image", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}}},
		{name: "remote 404", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Path: srv.URL + "/missing.png"}, wantWarns: 1},
		{name: "missing file", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Path: "/nonexistent/photo.jpg"}, wantWarns: 1},
		{name: "not an image", img: artifact.Image{Rect: artifact.Rect{W: 20, H: 20}, Data: []byte("hello")}, wantWarns: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page artifact.Page
			page.Add(tt.img, artifact.Text{Rect: artifact.Rect{X: 10, Y: 30, W: 100}, Content: "Élève inscrite"})
			doc := artifact.Document{Title: tt.name, Size: artifact.A4, Pages: []artifact.Page{page}}

			logger := new(loggerMock)
			data, err := NewRenderer(logger).RenderBytes(context.Background(), doc)
			require.NoError(t, err, "images are best effort")
			assert.NotEmpty(t, data)
			assert.Len(t, logger.warns, tt.wantWarns)
		})
	}
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("KIAM-2026-0001")
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.GrayModel, cfg.ColorModel, "8-bit gray")
	assert.Equal(t, qrPixels, cfg.Width)
	assert.Equal(t, qrPixels, cfg.Height)
}

func TestRenderQR(t *testing.T) {
	var page artifact.Page
	page.Add(artifact.QR{Rect: artifact.Rect{X: 10, Y: 10, W: 30, H: 30}, Payload: "KIAM-2026-0001"})
	doc := artifact.Document{Title: "qr", Size: artifact.A4, Pages: []artifact.Page{page}}

	logger := new(loggerMock)
	data, err := NewRenderer(logger).RenderBytes(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, logger.warns)
	assert.Contains(t, string(data), "/Subtype /Image", "the qr code is embedded")
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderer(nil).RenderBytes(ctx, artifact.Badge(participant()))
	assert.ErrorIs(t, err, context.Canceled)
}
