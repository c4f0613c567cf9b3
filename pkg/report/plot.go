package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/andrew-torda/seqcons/pkg/consensus"
)

// Plot sizes in pixels
const (
	plotWidth   = 800
	plotHeight  = 200
	captionH    = 24
	margin      = 10
	fontSize    = 12
	maxColWidth = 8
)

var (
	colBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colKept       = color.RGBA{0x1f, 0x4e, 0x9c, 0xff}
	colTrimmed    = color.RGBA{0xb0, 0xb0, 0xb0, 0xff}
	colThreshold  = color.RGBA{0xd0, 0x20, 0x20, 0xff}
	colText       = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

var (
	fontOnce sync.Once
	fontErr  error
	plotFont *truetype.Font
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		plotFont, fontErr = freetype.ParseFont(goregular.TTF)
	})
	return plotFont, fontErr
}

// fillRect paints the rectangle r in one colour.
func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

// CoverageImage draws the fraction of sequences covering each column of
// an alignment. Columns kept in the consensus are dark, trimmed ones are
// grey and the representation threshold is a red line. The caption goes
// underneath.
func CoverageImage(res *consensus.Result, minRep float64, caption string) (*image.RGBA, error) {
	ncol := len(res.Coverage)
	colW := 1
	if ncol > 0 && ncol < plotWidth {
		colW = min(plotWidth/ncol, maxColWidth)
	}
	plotW := max(ncol*colW, 1)
	if ncol > plotWidth {
		plotW = plotWidth
	}
	width := plotW + 2*margin
	height := plotHeight + captionH + 2*margin
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Bounds(), colBackground)

	base := margin + plotHeight // y of the x axis
	for c := 0; c < ncol && res.NRow > 0; c++ {
		x0 := margin + c*plotW/ncol
		x1 := max(margin+(c+1)*plotW/ncol, x0+1)
		h := res.Coverage[c] * plotHeight / res.NRow
		colour := colTrimmed
		if c >= res.Left && c < res.Right {
			colour = colKept
		}
		fillRect(img, image.Rect(x0, base-h, x1, base), colour)
	}
	if minRep > 0 && minRep <= 1 {
		y := base - int(minRep*plotHeight)
		fillRect(img, image.Rect(margin, y, margin+plotW, y+1), colThreshold)
	}

	if caption == "" {
		return img, nil
	}
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	fc := freetype.NewContext()
	fc.SetDPI(72)
	fc.SetFont(f)
	fc.SetFontSize(fontSize)
	fc.SetClip(img.Bounds())
	fc.SetDst(img)
	fc.SetSrc(image.NewUniform(colText))
	fc.SetHinting(font.HintingFull)
	pt := freetype.Pt(margin, base+captionH-(captionH-fontSize)/2)
	if _, err := fc.DrawString(caption, pt); err != nil {
		return nil, fmt.Errorf("drawing caption: %w", err)
	}
	return img, nil
}

// Caption is the text under a coverage plot.
func Caption(name string, res *consensus.Result) string {
	return fmt.Sprintf("%s  seqs %d  cols %d  kept [%d,%d)  N %d",
		name, res.NRow, len(res.Coverage), res.Left, res.Right, res.NAmbig())
}

// WritePlot writes a coverage plot as png.
func WritePlot(w io.Writer, name string, res *consensus.Result, minRep float64) error {
	img, err := CoverageImage(res, minRep, Caption(name, res))
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WritePlotFile writes a coverage plot to a named png file.
func WritePlotFile(fname, name string, res *consensus.Result, minRep float64) (err error) {
	fp, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	defer func() {
		if e := fp.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return WritePlot(fp, name, res, minRep)
}
