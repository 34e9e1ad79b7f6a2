// Package ggoverlay renders placeholder frames and the optional timecode
// badge using gg.
package ggoverlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/user/vidcast/pkg/ports"
)

// defaultBackground is the fill used for placeholder frames held before the
// first real screencast frame arrives.
var defaultBackground = color.RGBA{R: 24, G: 24, B: 28, A: 255}

// badge styling for the timecode overlay.
var (
	badgeBackground = color.RGBA{A: 160}
	badgeText       = color.White
)

const (
	badgeMargin  = 8
	badgePadding = 6
	badgeRadius  = 4
)

// Renderer implements resample placeholder rendering and ports.Overlay.
type Renderer struct {
	background color.Color
}

// New creates a renderer with the default background color.
func New() *Renderer {
	return &Renderer{background: defaultBackground}
}

// BlankFrame returns a solid placeholder frame of the given dimensions.
func (r *Renderer) BlankFrame(width, height int) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetColor(r.background)
	dc.Clear()
	return dc.Image()
}

// Stamp draws a timecode badge in the bottom-left corner of a copy of img.
// The source is never mutated; resampled ticks share pixel buffers.
func (r *Renderer) Stamp(img image.Image, timestampMs int) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(basicfont.Face7x13)

	label := formatTimecode(timestampMs)
	w, h := dc.MeasureString(label)

	x := float64(badgeMargin)
	y := float64(bounds.Dy()) - float64(badgeMargin) - h - 2*badgePadding
	dc.SetColor(badgeBackground)
	dc.DrawRoundedRectangle(x, y, w+2*badgePadding, h+2*badgePadding, badgeRadius)
	dc.Fill()

	dc.SetColor(badgeText)
	dc.DrawString(label, x+badgePadding, y+badgePadding+h-2)

	return dst
}

// formatTimecode renders a millisecond offset as mm:ss.mmm.
func formatTimecode(timestampMs int) string {
	if timestampMs < 0 {
		timestampMs = 0
	}
	minutes := timestampMs / 60000
	seconds := (timestampMs % 60000) / 1000
	millis := timestampMs % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}

// Ensure Renderer implements ports.Overlay
var _ ports.Overlay = (*Renderer)(nil)
