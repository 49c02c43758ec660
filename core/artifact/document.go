// Package artifact describes printable documents as data; services/pdf draws them.
package artifact

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kinds
const (
	KindBadge        = "badge"
	KindBulletin     = "bulletin"
	KindCertificate  = "certificat"
	KindRegistration = "fiche_inscription"
)

// Size is a page format in millimetres.
type Size struct {
	W, H float64
}

var (
	A4          = Size{W: 210, H: 297}
	A4Landscape = Size{W: 297, H: 210}
	BadgeSize   = Size{W: 54, H: 86} // ID-1 card, portrait
)

type Color struct {
	R, G, B int
}

var (
	Black     = Color{0, 0, 0}
	White     = Color{255, 255, 255}
	Gray      = Color{120, 120, 120}
	LightGray = Color{235, 235, 235}
	Primary   = Color{22, 78, 140}
	Accent    = Color{214, 158, 46}
)

// Rect positions a region, relative to the page's top left corner.
type Rect struct {
	X, Y, W, H float64
}

type Region interface {
	Bounds() Rect
}

// Box is a rectangle. A nil Fill or Border is not drawn.
type Box struct {
	Rect
	Rounded   bool
	Radius    float64
	Fill      *Color
	Border    *Color
	LineWidth float64
}

// Text styles
const (
	StyleRegular    = ""
	StyleBold       = "B"
	StyleItalic     = "I"
	StyleBoldItalic = "BI"
)

// Text alignments
const (
	AlignLeft   = "L"
	AlignCenter = "C"
	AlignRight  = "R"
)

// Text wraps within W. H is the line height; zero derives it from Size.
type Text struct {
	Rect
	Content string
	Font    string
	Size    float64
	Style   string
	Align   string
	Color   Color
}

// Image is drawn from Data, or loaded from Path (file or URL) when Data is empty.
// Images are best effort: a missing or broken image is skipped.
type Image struct {
	Rect
	Data []byte
	Path string
}

// QR encodes Payload into a square code of side min(W, H).
type QR struct {
	Rect
	Payload string
}

// Watermark is translucent text rotated by Angle degrees around its origin.
type Watermark struct {
	Rect
	Content string
	Size    float64
	Angle   float64
	Alpha   float64
	Color   Color
}

func (b Box) Bounds() Rect       { return b.Rect }
func (t Text) Bounds() Rect      { return t.Rect }
func (i Image) Bounds() Rect     { return i.Rect }
func (q QR) Bounds() Rect        { return q.Rect }
func (w Watermark) Bounds() Rect { return w.Rect }

type Page struct {
	Regions []Region
}

// Add appends regions in drawing order.
func (p *Page) Add(regions ...Region) *Page {
	p.Regions = append(p.Regions, regions...)
	return p
}

type Document struct {
	Title string
	Kind  string
	Size  Size
	Pages []Page
}

// Texts returns the content of every text region, in order. Handy to check layouts.
func (d Document) Texts() []string {
	var out []string
	for _, p := range d.Pages {
		for _, r := range p.Regions {
			switch v := r.(type) {
			case Text:
				out = append(out, v.Content)
			case Watermark:
				out = append(out, v.Content)
			}
		}
	}
	return out
}

var unsafeChars = regexp.MustCompile(`[^\pL\pN._-]+`)

// Filename is `<kind>_<subject>_<yyyy-mm-dd>.pdf`, e.g. badge_KIAM-2026-0001_2026-10-14.pdf.
func Filename(kind, subject string, now time.Time) string {
	subject = strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(subject), "_"), "_")
	if subject == "" {
		return fmt.Sprintf("%s_%s.pdf", kind, now.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s_%s_%s.pdf", kind, subject, now.Format("2006-01-02"))
}
