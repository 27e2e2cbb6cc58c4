package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/whyrusleeping/drumkit/internal/config"
	"github.com/whyrusleeping/drumkit/internal/logger"
	"github.com/whyrusleeping/drumkit/sampler"
)

const (
	transportHeight = 40
	tileHeight      = 120
	scopeHeight     = 80
	margin          = 10

	volumeStep = 0.05
	rateStep   = 0.1

	scancodeMask = 1 << 30
)

var transportKeys = map[sdl.Keycode]sampler.Command{
	sdl.K_F1: sampler.CmdRecord,
	sdl.K_F2: sampler.CmdStop,
	sdl.K_F3: sampler.CmdPlay,
	sdl.K_F4: sampler.CmdClear,
}

// window is the SDL surface: pads, transport, waveform and spectrum.
type window struct {
	kit *sampler.Kit
	log *logger.Logger

	win      *sdl.Window
	renderer *sdl.Renderer
	vp       sampler.Viewport

	frames *sampler.FrameQueue
	vis    *sampler.Visualizer
	canvas *sdlCanvas
	scope  [][2]float64
}

// runWindow drives the SDL loop until the window closes or done is closed.
func runWindow(kit *sampler.Kit, cfg *config.Config, log *logger.Logger, done <-chan struct{}) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "initializing SDL")
	}
	defer sdl.Quit()

	win, err := sdl.CreateWindow("drumkit", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Visualizer.Width), int32(cfg.Visualizer.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		return errors.Wrap(err, "creating window")
	}
	defer win.Destroy()

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return errors.Wrap(err, "creating renderer")
	}
	defer renderer.Destroy()

	w := &window{
		kit:      kit,
		log:      log,
		win:      win,
		renderer: renderer,
		frames:   &sampler.FrameQueue{},
		canvas:   &sdlCanvas{renderer: renderer},
		scope:    make([][2]float64, 512),
	}
	w.resize()

	w.vis = sampler.NewVisualizer(kit.Graph, w.frames, w.canvas, cfg.Visualizer.Bars)
	kit.Graph.OnCreate(w.vis.Start)
	defer w.vis.Stop()

	for running := true; running; {
		select {
		case <-done:
			return nil
		default:
		}
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if !w.handle(event) {
				running = false
			}
		}
		w.render()
	}
	return nil
}

// handle reacts to one SDL event. It returns false when the window should
// close.
func (w *window) handle(event sdl.Event) bool {
	switch event := event.(type) {
	case *sdl.QuitEvent:
		return false

	case *sdl.KeyboardEvent:
		if event.Type != sdl.KEYDOWN {
			return true
		}
		sym := event.Keysym.Sym
		if cmd, ok := transportKeys[sym]; ok {
			w.kit.Session.Do(cmd)
			return true
		}
		switch sym {
		case sdl.K_ESCAPE:
			return false
		case sdl.K_UP:
			w.kit.Nudge("volume", volumeStep)
		case sdl.K_DOWN:
			w.kit.Nudge("volume", -volumeStep)
		case sdl.K_RIGHT:
			w.kit.Nudge("rate", rateStep)
		case sdl.K_LEFT:
			w.kit.Nudge("rate", -rateStep)
		default:
			if token, ok := keyToken(sym); ok {
				w.kit.Trigger(token)
			}
		}

	case *sdl.MouseButtonEvent:
		if event.Type == sdl.MOUSEBUTTONDOWN && event.Button == sdl.BUTTON_LEFT {
			w.click(event.X, event.Y)
		}

	case *sdl.WindowEvent:
		switch event.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			w.resize()
		case sdl.WINDOWEVENT_MINIMIZED:
			if err := w.kit.Graph.Suspend(); err != nil {
				w.log.Warnf("suspending audio: %v", err)
			}
		case sdl.WINDOWEVENT_RESTORED:
			if w.kit.Graph.Created() {
				if err := w.kit.Graph.Ensure(); err != nil {
					w.log.Debugf("resuming audio: %v", err)
				}
			}
		}
	}
	return true
}

// keyToken names a key for the normalizer. Only printable keys and the
// keypad are passed on; modifiers and navigation keys would otherwise
// normalize to their first letter.
func keyToken(sym sdl.Keycode) (string, bool) {
	name := sdl.GetKeyName(sym)
	if sym >= 0x20 && sym < 0x7f {
		return name, true
	}
	if sym&scancodeMask != 0 && strings.HasPrefix(strings.ToLower(name), "keypad ") {
		return name, true
	}
	return "", false
}

func (w *window) resize() {
	winW, winH := w.win.GetSize()
	outW, outH, err := w.renderer.GetOutputSize()
	if err != nil {
		outW, outH = winW, winH
	}
	w.vp = sampler.NewViewport(winW, winH, outW, outH)
	w.canvas.rect = w.backing(w.spectrumRect())

	bw, bh := w.vp.Backing()
	w.log.Debugf("window %dx%d, backing %dx%d", winW, winH, bw, bh)
}

func (w *window) click(x, y int32) {
	pt := sdl.Point{X: x, Y: y}
	for i, cmd := range sampler.Commands {
		if r := w.buttonRect(i); pt.InRect(&r) {
			w.kit.Session.Do(cmd)
			return
		}
	}
	for i, key := range w.kit.Bank.Keys() {
		if r := w.tileRect(i); pt.InRect(&r) {
			w.kit.Trigger(key)
			return
		}
	}
}

func (w *window) render() {
	r := w.renderer
	r.SetDrawColor(24, 24, 28, 255)
	r.Clear()

	w.frames.Flush()

	for i, cmd := range sampler.Commands {
		w.drawButton(w.buttonRect(i), cmd)
	}
	for i, key := range w.kit.Bank.Keys() {
		w.drawTile(w.tileRect(i), w.kit.Pulses.Level(key))
	}
	w.drawScope()

	r.Present()
}

func (w *window) drawButton(rect sdl.Rect, cmd sampler.Command) {
	r := w.renderer
	switch {
	case !w.kit.Session.Enabled(cmd):
		r.SetDrawColor(50, 50, 55, 255)
	case cmd == sampler.CmdRecord && w.kit.Session.State() == sampler.Recording,
		cmd == sampler.CmdPlay && w.kit.Session.State() == sampler.Playing:
		r.SetDrawColor(200, 60, 60, 255)
	default:
		r.SetDrawColor(90, 90, 100, 255)
	}
	b := w.backing(rect)
	r.FillRect(&b)
}

// drawTile grows and brightens a pad while its pulse lasts.
func (w *window) drawTile(rect sdl.Rect, level float64) {
	grow := int32(float64(rect.W) * 0.1 * level / 2)
	rect.X -= grow
	rect.Y -= grow
	rect.W += 2 * grow
	rect.H += 2 * grow

	shade := uint8(70 + 150*level)
	w.renderer.SetDrawColor(shade, shade, uint8(90+140*level), 255)
	b := w.backing(rect)
	w.renderer.FillRect(&b)
}

// drawScope draws the last analysed frames as a line graph.
func (w *window) drawScope() {
	a := w.kit.Graph.Analyser()
	if a == nil {
		return
	}
	n := a.Snapshot(w.scope)
	rect := w.backing(w.scopeRect())
	graphData(w.renderer, w.scope[:n], rect.X, rect.Y, rect.W, rect.H, -1, 1)
}

func graphData(renderer *sdl.Renderer, dataPoints [][2]float64, x, y, width, height int32, minval, maxval float64) {
	renderer.SetDrawColor(80, 80, 80, 255)
	renderer.DrawLine(x, y+height/2, x+width, y+height/2)

	spread := maxval - minval
	level := func(v float64) int32 {
		return y + height - int32((v-minval)*float64(height)/spread)
	}

	renderer.SetDrawColor(120, 220, 160, 255)
	for i := 0; i < len(dataPoints)-1; i++ {
		x1 := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		x2 := x + int32(float64(i+1)*float64(width)/float64(len(dataPoints)-1))
		y1 := level((dataPoints[i][0] + dataPoints[i][1]) / 2)
		y2 := level((dataPoints[i+1][0] + dataPoints[i+1][1]) / 2)
		renderer.DrawLine(x1, y1, x2, y2)
	}
}

// Layout, in window coordinates.

func (w *window) buttonRect(i int) sdl.Rect {
	return sdl.Rect{X: margin + int32(i)*(100+margin), Y: margin, W: 100, H: transportHeight}
}

func (w *window) tileRect(i int) sdl.Rect {
	n := int32(w.kit.Bank.Len())
	if n == 0 {
		return sdl.Rect{}
	}
	tw := (w.vp.Width - margin*(n+1)) / n
	return sdl.Rect{
		X: margin + int32(i)*(tw+margin),
		Y: 2*margin + transportHeight,
		W: tw,
		H: tileHeight,
	}
}

func (w *window) scopeRect() sdl.Rect {
	return sdl.Rect{
		X: margin,
		Y: 3*margin + transportHeight + tileHeight,
		W: w.vp.Width - 2*margin,
		H: scopeHeight,
	}
}

func (w *window) spectrumRect() sdl.Rect {
	top := 4*margin + transportHeight + tileHeight + scopeHeight
	h := w.vp.Height - top - margin
	if h < 0 {
		h = 0
	}
	return sdl.Rect{X: margin, Y: top, W: w.vp.Width - 2*margin, H: h}
}

func (w *window) backing(r sdl.Rect) sdl.Rect {
	x, y := w.vp.ToBacking(r.X, r.Y)
	bw, bh := w.vp.ToBacking(r.W, r.H)
	return sdl.Rect{X: x, Y: y, W: bw, H: bh}
}

// sdlCanvas is the spectrum area of the renderer, in backing pixels.
type sdlCanvas struct {
	renderer *sdl.Renderer
	rect     sdl.Rect
}

func (c *sdlCanvas) Bounds() (int32, int32) {
	return c.rect.W, c.rect.H
}

func (c *sdlCanvas) Clear() {
	c.renderer.SetDrawColor(12, 12, 16, 255)
	c.renderer.FillRect(&c.rect)
}

func (c *sdlCanvas) FillRect(b sampler.Bar) {
	c.renderer.SetDrawColor(b.Color.R, b.Color.G, b.Color.B, b.Color.A)
	c.renderer.FillRect(&sdl.Rect{X: c.rect.X + b.X, Y: c.rect.Y + b.Y, W: b.W, H: b.H})
}
