// Package main is the playable front end: an ebiten window over the
// machine's front page, oto for the audio device, ebitenui for the
// pause overlay.
package main

import (
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ebitenui/ebitenui"
	euiimage "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"go.creack.net/anotherworld/audio"
	"go.creack.net/anotherworld/cli"
	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/vm"
)

var fontFace = text.NewGoXFace(bitmapfont.Face)

// mixerReader adapts the mixer to oto's pull model. oto asks for
// unsigned 8-bit mono; the mixer produces signed 8-bit.
type mixerReader struct {
	mixer *audio.Mixer
	rate  int
	buf   []byte
}

func (r *mixerReader) Read(p []byte) (int, error) {
	if len(r.buf) < len(p) {
		r.buf = make([]byte, len(p))
	}
	r.mixer.Mix(r.buf[:len(p)], r.rate)
	for i, s := range r.buf[:len(p)] {
		p[i] = s ^ 0x80
	}
	return len(p), nil
}

type Game struct {
	machine *vm.Machine
	cfg     cli.Config

	frame      *ebiten.Image
	pixels     []byte // RGBA scratch, one frame.
	frameDirty bool

	// Pacing: the show instruction tells us how long to hold the frame.
	nextTic time.Time
	delay   time.Duration

	paused      bool
	fastForward bool
	showHUD     bool
	inputChars  []rune

	ui *ebitenui.UI
}

func NewGame(machine *vm.Machine, cfg cli.Config) *Game {
	g := &Game{
		machine: machine,
		cfg:     cfg,
		frame:   ebiten.NewImage(op.ScreenWidth, op.ScreenHeight),
		pixels:  make([]byte, op.ScreenWidth*op.ScreenHeight*4),
		nextTic: time.Now(),
	}
	machine.OnFrame = func(page int, delay time.Duration) {
		g.delay = delay
		g.frameDirty = true
	}
	g.ui = g.newPauseUI()
	return g
}

func (g *Game) newPauseUI() *ebitenui.UI {
	newButton := func(label string, onClick func()) *widget.Button {
		idle := euiimage.NewNineSliceColor(color.NRGBA{R: 0x20, G: 0x20, B: 0x40, A: 0xFF})
		hover := euiimage.NewNineSliceColor(color.NRGBA{R: 0x30, G: 0x30, B: 0x60, A: 0xFF})
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: idle, Hover: hover, Pressed: hover}),
			widget.ButtonOpts.Text(label, fontFace, &widget.ButtonTextColor{Idle: color.White}),
			widget.ButtonOpts.TextPadding(widget.NewInsetsSimple(6)),
			widget.ButtonOpts.ClickedHandler(func(*widget.ButtonClickedEventArgs) { onClick() }),
		)
	}

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Padding(widget.NewInsetsSimple(16)),
			widget.RowLayoutOpts.Spacing(8),
		)),
	)
	root.AddChild(newButton("Resume", func() { g.paused = false }))
	root.AddChild(newButton("Restart part", func() {
		g.machine.Memory().SchedulePart(g.machine.Part())
		g.paused = false
	}))
	root.AddChild(newButton("Password screen", func() {
		g.machine.Memory().SchedulePart(op.PartPassword)
		g.paused = false
	}))
	return &ebitenui.UI{Container: root}
}

func (g *Game) input() vm.Input {
	in := vm.Input{
		Left:   ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right:  ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Up:     ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Action: ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyEnter),
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		in.PasswordScreen = true
	}
	for _, r := range g.inputChars {
		if r < 0x80 {
			in.LastChar = byte(r)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		in.LastChar = 8
	}
	g.inputChars = g.inputChars[:0]
	return in
}

func (g *Game) Update() error {
	g.inputChars = ebiten.AppendInputChars(g.inputChars)

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.showHUD = !g.showHUD
	}
	g.fastForward = ebiten.IsKeyPressed(ebiten.KeyF)

	if g.paused {
		g.ui.Update()
		return nil
	}

	// Run as many tics as the frame pacing owes us. Fast-forward
	// ignores the delays, within a sane cap per host frame.
	in := g.input()
	for range 8 {
		if !g.fastForward && time.Now().Before(g.nextTic) {
			break
		}
		g.delay = 0
		if err := g.machine.RunTic(in); err != nil {
			return fmt.Errorf("run tic: %w", err)
		}
		if g.delay > 0 && !g.fastForward {
			g.nextTic = time.Now().Add(g.delay)
			break
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.frameDirty {
		g.frameDirty = false
		page := g.machine.Video().Page(g.machine.Video().Front())
		colors := g.machine.Video().Colors()
		for i, c := range page {
			rgb := colors[c&0xF]
			g.pixels[i*4] = rgb[0]
			g.pixels[i*4+1] = rgb[1]
			g.pixels[i*4+2] = rgb[2]
			g.pixels[i*4+3] = 0xFF
		}
		g.frame.WritePixels(g.pixels)
	}
	screen.DrawImage(g.frame, nil)

	if g.showHUD {
		textOp := &text.DrawOptions{}
		textOp.ColorScale.ScaleWithColor(color.RGBA{R: 255, G: 255})
		text.Draw(screen, fmt.Sprintf("part %s tic %d", g.machine.Part(), g.machine.Ticks()), fontFace, textOp)
	}
	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return op.ScreenWidth, op.ScreenHeight
}

func main() {
	cfg, err := cli.ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	machine, repo, err := cli.NewMachine(cfg)
	if err != nil {
		log.Fatalf("Failed to build the machine: %s.", err)
	}
	defer repo.Close()

	if !cfg.Mute {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatUnsignedInt8,
		})
		if err != nil {
			log.Fatalf("Failed to open the audio device: %s.", err)
		}
		<-ready
		player := ctx.NewPlayer(&mixerReader{mixer: machine.Mixer(), rate: cfg.SampleRate})
		player.Play()
		defer player.Close()
	}

	// Drain the event stream so the machine never drops frames on a
	// full channel.
	go func() {
		for range machine.Messages {
		}
	}()

	ebiten.SetWindowTitle("Another World")
	ebiten.SetWindowSize(op.ScreenWidth*cfg.Scale, op.ScreenHeight*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(NewGame(machine, cfg)); err != nil {
		log.Fatal(err)
	}
}
