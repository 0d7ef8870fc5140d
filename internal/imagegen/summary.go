package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontTitle   font.Face
	fontRegular font.Face
	fontTemp    font.Face
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() {
	fontOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse goregular: %w", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse gobold: %w", err)
			return
		}

		if fontTitle, err = newFace(bold, 44); err != nil {
			fontErr = fmt.Errorf("create title face: %w", err)
			return
		}
		if fontRegular, err = newFace(regular, 30); err != nil {
			fontErr = fmt.Errorf("create regular face: %w", err)
			return
		}
		if fontTemp, err = newFace(bold, 40); err != nil {
			fontErr = fmt.Errorf("create temperature face: %w", err)
			return
		}
	})
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Width and Height are the standard Open Graph image dimensions.
const (
	Width  = 1200
	Height = 630

	maxRows   = 5
	rowHeight = 90
	marginX   = 60
)

// Row is one city line on the summary image. Temperature is drawn only when
// HasTemperature is set; Detail carries the condition or status text.
type Row struct {
	City           string
	Detail         string
	Temperature    float64
	HasTemperature bool
	Failed         bool
}

type SummaryData struct {
	Title string
	Rows  []Row
}

// RenderSummary draws the city rows onto a dark gradient card and encodes it as PNG.
func RenderSummary(data SummaryData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	drawBackground(img)

	white := color.RGBA{255, 255, 255, 255}
	lightGray := color.RGBA{200, 200, 200, 255}
	errorRed := color.RGBA{239, 154, 154, 255}

	title := data.Title
	if title == "" {
		title = "Weather"
	}
	drawText(img, title, marginX, 90, white, fontTitle)

	rows := data.Rows
	extra := 0
	if len(rows) > maxRows {
		extra = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	y := 180
	for _, row := range rows {
		drawText(img, row.City, marginX, y, white, fontRegular)
		if row.HasTemperature {
			drawText(img, fmt.Sprintf("%.0f°C", row.Temperature), 520, y, white, fontTemp)
		}
		detailColor := lightGray
		if row.Failed {
			detailColor = errorRed
		}
		drawText(img, truncate(row.Detail, 32), 720, y, detailColor, fontRegular)
		y += rowHeight
	}
	if extra > 0 {
		drawText(img, fmt.Sprintf("+%d more", extra), marginX, Height-20, lightGray, fontRegular)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode summary image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBackground(img *image.RGBA) {
	for y := 0; y < Height; y++ {
		progress := float64(y) / float64(Height)
		c := color.RGBA{
			R: uint8(20 + progress*10),
			G: uint8(30 + progress*20),
			B: uint8(60 + progress*30),
			A: 255,
		}
		for x := 0; x < Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
