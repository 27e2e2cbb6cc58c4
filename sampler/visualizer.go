package sampler

import (
	"image/color"
	"math"
	"sync"
)

// DefaultBars caps how many spectrum bins are drawn.
const DefaultBars = 64

// Bar is one filled rectangle of the spectrum, in backing pixels.
type Bar struct {
	X, Y, W, H int32
	Color      color.RGBA
}

// Canvas is the drawable area the visualizer owns. Sizes are in backing
// pixels.
type Canvas interface {
	Bounds() (w, h int32)
	Clear()
	FillRect(b Bar)
}

// Visualizer redraws the analyser's spectrum as bars on every display
// refresh once started.
type Visualizer struct {
	graph   *Graph
	frames  FrameScheduler
	canvas  Canvas
	maxBars int

	lk      sync.Mutex
	running bool
	handle  int
	data    []uint8
	drawn   int
}

func NewVisualizer(graph *Graph, frames FrameScheduler, canvas Canvas, maxBars int) *Visualizer {
	if maxBars <= 0 {
		maxBars = DefaultBars
	}
	return &Visualizer{
		graph:   graph,
		frames:  frames,
		canvas:  canvas,
		maxBars: maxBars,
	}
}

// Start schedules the draw loop. Calling it again while running does nothing.
func (v *Visualizer) Start() {
	v.lk.Lock()
	defer v.lk.Unlock()

	if v.running {
		return
	}
	v.running = true
	v.handle = v.frames.RequestFrame(v.frame)
}

// Stop cancels the pending frame so no callback stays scheduled.
func (v *Visualizer) Stop() {
	v.lk.Lock()
	defer v.lk.Unlock()

	if !v.running {
		return
	}
	v.running = false
	v.frames.CancelFrame(v.handle)
}

func (v *Visualizer) Running() bool {
	v.lk.Lock()
	defer v.lk.Unlock()
	return v.running
}

// Frames counts frames that drew a spectrum.
func (v *Visualizer) Frames() int {
	v.lk.Lock()
	defer v.lk.Unlock()
	return v.drawn
}

func (v *Visualizer) frame() {
	v.lk.Lock()
	if !v.running {
		v.lk.Unlock()
		return
	}
	v.lk.Unlock()

	v.draw()

	v.lk.Lock()
	if v.running {
		v.handle = v.frames.RequestFrame(v.frame)
	}
	v.lk.Unlock()
}

func (v *Visualizer) draw() {
	v.canvas.Clear()

	a := v.graph.Analyser()
	if a == nil {
		return
	}

	v.lk.Lock()
	if len(v.data) != a.BinCount() {
		v.data = make([]uint8, a.BinCount())
	}
	data := v.data
	v.lk.Unlock()

	n := a.FrequencyData(data)
	w, h := v.canvas.Bounds()
	for _, b := range LayoutBars(data[:n], v.maxBars, w, h) {
		v.canvas.FillRect(b)
	}

	v.lk.Lock()
	v.drawn++
	v.lk.Unlock()
}

// LayoutBars turns a byte spectrum into at most maxBars bars filling a w×h
// area. Bins past maxBars are ignored.
func LayoutBars(data []uint8, maxBars int, w, h int32) []Bar {
	n := len(data)
	if n > maxBars {
		n = maxBars
	}
	if n == 0 || w <= 0 || h <= 0 {
		return nil
	}

	step := float64(w) / float64(n)
	var gap int32
	if step > 3 {
		gap = 1
	}

	bars := make([]Bar, 0, n)
	for i := 0; i < n; i++ {
		x := int32(float64(i) * step)
		width := int32(float64(i+1)*step) - x - gap
		if width < 1 {
			width = 1
		}
		height := int32(math.Round(float64(data[i]) / 255 * float64(h)))

		bars = append(bars, Bar{
			X:     x,
			Y:     h - height,
			W:     width,
			H:     height,
			Color: BarColor(data[i]),
		})
	}
	return bars
}

// BarColor shifts from blue at silence to red at full intensity.
func BarColor(v uint8) color.RGBA {
	hue := 240 * (1 - float64(v)/255)
	r, g, b := hslToRGB(hue, 0.9, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	conv := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v+m)) * 255))
	}
	return conv(r), conv(g), conv(b)
}

// Viewport relates window coordinates to backing pixels.
type Viewport struct {
	Width, Height int32
	Ratio         float64
}

// NewViewport derives the pixel ratio from the window size and the
// renderer's output size.
func NewViewport(winW, winH, outW, outH int32) Viewport {
	ratio := 1.0
	if winW > 0 && outW > 0 {
		ratio = float64(outW) / float64(winW)
	}
	return Viewport{Width: winW, Height: winH, Ratio: ratio}
}

// Backing is the canvas resolution for the viewport.
func (v Viewport) Backing() (int32, int32) {
	return v.ToBacking(v.Width, v.Height)
}

func (v Viewport) ToBacking(x, y int32) (int32, int32) {
	return int32(math.Round(float64(x) * v.Ratio)), int32(math.Round(float64(y) * v.Ratio))
}
