package se3

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PlotRenderer draws the XY projection of a trajectory's running positions
// (the translation of each cumulative composition) as SVG or PNG, for quick
// visual inspection of a walk's shape and its boundedness.
type PlotRenderer struct {
	Trajectory *Trajectory
	Padding    float64     // world-space padding around the path
	PixelScale float64     // pixels per world unit for PNG output
	PathColor  color.NRGBA // stroke color for the path
	StartColor color.NRGBA // marker for the first position
	EndColor   color.NRGBA // marker for the last position
}

// NewPlotRenderer creates a renderer with default colors and scale.
func NewPlotRenderer(t *Trajectory) *PlotRenderer {
	return &PlotRenderer{
		Trajectory: t,
		Padding:    0.2,
		PixelScale: 200.0,
		PathColor:  color.NRGBA{70, 130, 180, 255}, // steel blue
		StartColor: color.NRGBA{0, 160, 0, 255},
		EndColor:   color.NRGBA{200, 0, 0, 255},
	}
}

// path projects the running positions onto the XY plane.
func (r *PlotRenderer) path() orb.LineString {
	ls := make(orb.LineString, 0, r.Trajectory.Len()+1)
	current := Identity()
	ls = append(ls, orb.Point{current.Translation[0], current.Translation[1]})
	for _, p := range r.Trajectory.Poses {
		current = Compose(current, p)
		ls = append(ls, orb.Point{current.Translation[0], current.Translation[1]})
	}
	return ls
}

// PathLength returns the planar length of the projected path.
func (r *PlotRenderer) PathLength() float64 {
	return planar.Length(r.path())
}

// RenderSVG writes the trajectory plot as an SVG document.
func (r *PlotRenderer) RenderSVG(w io.Writer) error {
	ls := r.path()
	bound := ls.Bound()
	width := bound.Max[0] - bound.Min[0] + 2*r.Padding
	height := bound.Max[1] - bound.Min[1] + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)

	toCanvas := func(p orb.Point) (float64, float64) {
		return p[0] - bound.Min[0] + r.Padding, p[1] - bound.Min[1] + r.Padding
	}

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	svgRenderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Bound circle for bounded trajectories, centered on the origin.
	if r.Trajectory.Bounded {
		boundStyle := canvas.DefaultStyle
		boundStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		boundStyle.Stroke = canvas.Paint{Color: canvas.Lightgray}
		boundStyle.StrokeWidth = r.strokeWidth() / 2

		cx, cy := toCanvas(orb.Point{0, 0})
		circle := canvas.Circle(r.Trajectory.RMax).Translate(cx, cy)
		svgRenderer.RenderPath(circle, boundStyle, canvas.Identity)
	}

	pathStyle := canvas.DefaultStyle
	pathStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	pathStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(r.PathColor)}
	pathStyle.StrokeWidth = r.strokeWidth()

	cp := &canvas.Path{}
	for i, p := range ls {
		cx, cy := toCanvas(p)
		if i == 0 {
			cp.MoveTo(cx, cy)
		} else {
			cp.LineTo(cx, cy)
		}
	}
	svgRenderer.RenderPath(cp, pathStyle, canvas.Identity)

	// Start and end markers.
	markerRadius := 2 * r.strokeWidth()
	for _, marker := range []struct {
		point orb.Point
		color color.NRGBA
	}{
		{ls[0], r.StartColor},
		{ls[len(ls)-1], r.EndColor},
	} {
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(marker.color)}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}

		cx, cy := toCanvas(marker.point)
		svgRenderer.RenderPath(canvas.Circle(markerRadius).Translate(cx, cy), style, canvas.Identity)
	}

	return svgRenderer.Close()
}

// RenderPNG writes the trajectory plot as a PNG image with a path-length
// annotation.
func (r *PlotRenderer) RenderPNG(w io.Writer) error {
	ls := r.path()
	bound := ls.Bound()

	scale := r.PixelScale
	if scale <= 0 {
		scale = 200.0
	}
	width := int(math.Ceil((bound.Max[0]-bound.Min[0]+2*r.Padding)*scale)) + 1
	height := int(math.Ceil((bound.Max[1]-bound.Min[1]+2*r.Padding)*scale)) + 1
	if width < 64 {
		width = 64
	}
	if height < 64 {
		height = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	// World to pixel, Y flipped so +Y points up.
	toPixel := func(p orb.Point) (int, int) {
		px := int(math.Round((p[0] - bound.Min[0] + r.Padding) * scale))
		py := height - 1 - int(math.Round((p[1]-bound.Min[1]+r.Padding)*scale))
		return px, py
	}

	pathRGBA := color.RGBA{r.PathColor.R, r.PathColor.G, r.PathColor.B, 255}
	for i := 0; i < len(ls)-1; i++ {
		x0, y0 := toPixel(ls[i])
		x1, y1 := toPixel(ls[i+1])
		drawLine(img, x0, y0, x1, y1, pathRGBA)
	}

	sx, sy := toPixel(ls[0])
	ex, ey := toPixel(ls[len(ls)-1])
	drawDot(img, sx, sy, 3, color.RGBA{r.StartColor.R, r.StartColor.G, r.StartColor.B, 255})
	drawDot(img, ex, ey, 3, color.RGBA{r.EndColor.R, r.EndColor.G, r.EndColor.B, 255})

	label := fmt.Sprintf("poses=%d length=%.3f", r.Trajectory.Len(), planar.Length(ls))
	drawText(img, 5, height-5, label, color.RGBA{0, 0, 0, 255})

	return png.Encode(w, img)
}

// strokeWidth scales the stroke to the plot extent so small walks stay visible.
func (r *PlotRenderer) strokeWidth() float64 {
	bound := r.path().Bound()
	extent := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	if extent < 1e-9 {
		return 0.01
	}
	return extent / 200.0
}

// nrgbaToRGBA converts color.NRGBA to premultiplied color.RGBA for canvas.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha) / 255),
		G: uint8((uint32(c.G) * alpha) / 255),
		B: uint8((uint32(c.B) * alpha) / 255),
		A: c.A,
	}
}

// drawLine draws a straight segment with simple DDA interpolation.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := x1-x0, y1-y0
	steps := intMax(intAbs(dx), intAbs(dy))
	if steps == 0 {
		img.Set(x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(dx)))
		y := y0 + int(math.Round(t*float64(dy)))
		img.Set(x, y, c)
	}
}

// drawDot fills a small disc around (x, y).
func drawDot(img *image.RGBA, x, y, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x+dx, y+dy, c)
			}
		}
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func intMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}
