package main

import (
	"image"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/mawasi/wayfarer/common"
)

// Hud owns the ebitenui overlay: a status readout, a pause button, and the
// touch joystick affordance. It doubles as the input adapter's UI hit-test
// surface and as the controller's affordance sink.
type Hud struct {
	ui *ebitenui.UI

	status   *widget.Text
	joystick *widget.Container

	// widgets that claim presses away from movement
	interactive []*widget.Widget

	width  int
	height int
}

func NewHud(g *Game, width, height int) *Hud {
	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	panelImg := imageui.NewNineSliceColor(color.NRGBA{A: 160})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnTextColor := &widget.ButtonTextColor{Idle: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}

	status := widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
			HorizontalPosition: widget.AnchorLayoutPositionStart,
			VerticalPosition:   widget.AnchorLayoutPositionStart,
		})),
	)

	pauseBtn := widget.NewButton(
		widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
		widget.ButtonOpts.Text("Pause", &face, btnTextColor),
		widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
			HorizontalPosition: widget.AnchorLayoutPositionEnd,
			VerticalPosition:   widget.AnchorLayoutPositionStart,
		})),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			g.togglePause()
		}),
	)

	// Joystick affordance: a translucent panel anchored bottom-left. The
	// controller shows and hides it on mode transitions under the touch
	// scheme. It is display-only, so it is not part of the hit-test set.
	joystick := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(140, 140),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionStart,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)
	joystick.GetWidget().Visibility = widget.Visibility_Hide

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout(
			widget.AnchorLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 10, Right: 10}),
		)),
	)
	root.AddChild(status)
	root.AddChild(pauseBtn)
	root.AddChild(joystick)

	return &Hud{
		ui:          &ebitenui.UI{Container: root},
		status:      status,
		joystick:    joystick,
		interactive: []*widget.Widget{pauseBtn.GetWidget()},
		width:       width,
		height:      height,
	}
}

// SetVisible toggles the joystick affordance.
func (h *Hud) SetVisible(visible bool) {
	if visible {
		h.joystick.GetWidget().Visibility = widget.Visibility_Show
	} else {
		h.joystick.GetWidget().Visibility = widget.Visibility_Hide
	}
}

// SetStatus updates the readout label.
func (h *Hud) SetStatus(s string) {
	h.status.Label = s
}

// HitUI reports whether a screen-normalized position lands on an
// interactive HUD widget.
func (h *Hud) HitUI(pos common.Vec2) bool {
	p := image.Point{X: int(pos.X * float64(h.width)), Y: int(pos.Y * float64(h.height))}
	for _, w := range h.interactive {
		if w.Visibility == widget.Visibility_Hide {
			continue
		}
		if p.In(w.Rect) {
			return true
		}
	}
	return false
}

// HitWorldObject reports whether the position lands on a clickable world
// object. The demo level has none.
func (h *Hud) HitWorldObject(pos common.Vec2) bool {
	return false
}

func (h *Hud) Update() {
	h.ui.Update()
}

func (h *Hud) Draw(screen *ebiten.Image) {
	h.ui.Draw(screen)
}
