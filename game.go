package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/mawasi/wayfarer/assets"
	"github.com/mawasi/wayfarer/backend"
	"github.com/mawasi/wayfarer/common"
	"github.com/mawasi/wayfarer/input"
	"github.com/mawasi/wayfarer/locomotion"
	"github.com/mawasi/wayfarer/script"
	"github.com/mawasi/wayfarer/speed"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	tickRate   = 60
)

const tickDT = 1.0 / float64(tickRate)

type Game struct {
	frames int
	debug  bool
	paused bool

	space *cp.Space
	agent *backend.NavAgent
	body  *backend.Body
	sink  *backend.ParamSink

	book    *speed.Book
	adapter *input.Adapter
	sampler *input.Sampler
	ctrl    *locomotion.Controller
	hud     *Hud
	patrol  *script.Runtime
	watcher *speed.Watcher

	playing bool
	busy    bool
	slowed  bool
	falling int
}

func NewGame(profilesPath string, scheme input.Scheme, runPatrol, debug bool) (*Game, error) {
	data, err := loadProfiles(profilesPath)
	if err != nil {
		return nil, err
	}
	table, err := speed.ParseTable(data)
	if err != nil {
		return nil, err
	}

	g := &Game{debug: debug}
	g.hud = NewHud(g, baseWidth, baseHeight)

	spawn := common.Vec2{X: baseWidth / 2, Y: baseHeight / 2}
	g.space = backend.NewSpace(0, 0, baseWidth, baseHeight)
	g.agent = backend.NewNavAgent(spawn)
	g.body = backend.NewBody(g.space, spawn, 16)
	g.sink = &backend.ParamSink{}
	g.book = speed.NewBook()

	g.adapter = input.NewAdapter(0.12, 0, g.hud)
	g.sampler = input.NewSampler(scheme, g.adapter, baseWidth, baseHeight)

	g.ctrl, err = locomotion.New(locomotion.Config{
		Agent:      g.agent,
		Mover:      g.body,
		Sink:       g.sink,
		Speeds:     table,
		Mods:       g.book,
		ModChanges: g.book.Changes(),
		Source:     g.sampler,
		Scheme:     scheme,
		Affordance: g.hud,
		TickRate:   tickRate,
		Debug:      debug,
	})
	if err != nil {
		return nil, err
	}

	g.ctrl.Notices().PushGameState(locomotion.StatePlay)
	g.playing = true

	if runPatrol {
		src, err := assets.Load("scripts/patrol.tengo")
		if err != nil {
			return nil, fmt.Errorf("load patrol script: %w", err)
		}
		g.patrol, err = script.New(src, g.ctrl)
		if err != nil {
			return nil, err
		}
	}

	if watcher, err := speed.NewWatcher("assets"); err != nil {
		log.Printf("profile watcher disabled: %v", err)
	} else {
		g.watcher = watcher
	}

	return g, nil
}

func loadProfiles(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return assets.Load("profiles.yaml")
}

func (g *Game) togglePause() {
	g.paused = !g.paused
	if g.paused {
		g.adapter.CancelAll()
	}
}

func (g *Game) Update() error {
	g.frames++
	g.hud.Update()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.togglePause()
	}
	if g.paused {
		return nil
	}

	g.handleDebugKeys()
	g.pollProfileReload()

	if g.falling > 0 {
		g.falling--
		if g.falling == 0 {
			g.ctrl.Notices().PushReaction(locomotion.ReactionNone)
		}
	}

	g.sampler.Update()
	g.adapter.Tick()
	if g.patrol != nil {
		g.patrol.Pump()
	}
	g.ctrl.Update()

	g.agent.Step(tickDT)
	g.space.Step(tickDT)
	g.syncBackends()

	g.hud.SetStatus(fmt.Sprintf(
		"mode: %s  tier: %s  speed: %.0f/%.0f  anim: %.0f",
		g.ctrl.Mode(), g.ctrl.Tier(), g.ctrl.CurrentSpeed(), g.ctrl.TargetSpeed(),
		g.sink.VelocityParameter(),
	))
	return nil
}

// handleDebugKeys maps keys to the external triggers the controller reacts
// to, so every path is reachable in the demo.
func (g *Game) handleDebugKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.playing = !g.playing
		if g.playing {
			g.ctrl.Notices().PushGameState(locomotion.StatePlay)
		} else {
			g.ctrl.Notices().PushGameState(locomotion.StateMenu)
			g.adapter.CancelAll()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.falling = 90
		g.ctrl.Notices().PushReaction(locomotion.ReactionFalling)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		// simulate an attack animation window: rotation-only input
		g.busy = !g.busy
		g.ctrl.SetBusy(g.busy)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		mx, my := ebiten.CursorPosition()
		g.ctrl.SetPosition(common.Vec2{X: float64(mx), Y: float64(my)})
	}
	if inpututil.IsKeyJustPressed(ebiten.Key1) {
		if g.slowed {
			g.book.Remove(speed.CategoryMovement, "chill")
		} else {
			g.book.Apply(speed.CategoryMovement, speed.Modifier{Name: "chill", Kind: speed.ModMul, Value: 0.5})
		}
		g.slowed = !g.slowed
	}
}

// syncBackends copies the active backend's transform onto the inactive one
// so a mode switch picks up where the character actually is.
func (g *Game) syncBackends() {
	switch g.ctrl.Mode() {
	case locomotion.ModeAgent:
		g.body.SetPosition(g.agent.Position())
	case locomotion.ModeController:
		g.agent.SetPosition(g.body.Position())
	}
}

func (g *Game) pollProfileReload() {
	if g.watcher == nil {
		return
	}
	select {
	case err, ok := <-g.watcher.Errors:
		if ok {
			log.Printf("profile watcher: %v", err)
		}
	case name, ok := <-g.watcher.Events:
		if !ok {
			g.watcher = nil
			return
		}
		data, err := os.ReadFile(name)
		if err != nil {
			log.Printf("profile reload %s: %v", name, err)
			return
		}
		table, err := speed.ParseTable(data)
		if err != nil {
			log.Printf("profile reload %s: %v", name, err)
			return
		}
		g.ctrl.SetTable(table)
		log.Printf("profile reloaded from %s", name)
	default:
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)
	vector.StrokeRect(screen, 0, 0, baseWidth, baseHeight, 2, colornames.Gray, false)

	pos := g.ctrl.Position()
	vector.DrawFilledCircle(screen, float32(pos.X), float32(pos.Y), 16, colornames.Orange, true)

	if g.debug {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()), 10, baseHeight-20)
	}
	g.hud.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
