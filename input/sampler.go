package input

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mawasi/wayfarer/common"
)

// Scheme selects which device family drives locomotion. Decided once at
// startup and consumed uniformly by the mode machine.
type Scheme int

const (
	// SchemeTouch steers with pointer contacts through the Adapter and
	// shows the on-screen joystick affordance.
	SchemeTouch Scheme = iota
	// SchemeGamepad steers with the left analog stick and never shows the
	// affordance.
	SchemeGamepad
)

func (s Scheme) String() string {
	if s == SchemeGamepad {
		return "gamepad"
	}
	return "touch"
}

// DetectScheme picks the gamepad scheme when a gamepad is connected,
// otherwise touch.
func DetectScheme() Scheme {
	if len(ebiten.AppendGamepadIDs(nil)) > 0 {
		return SchemeGamepad
	}
	return SchemeTouch
}

const stickDeadZone = 0.2

// Sampler polls ebiten input devices each frame and feeds contact events to
// the Adapter. The mouse is treated as a contact so desktop testing of the
// touch path works without a touchscreen.
type Sampler struct {
	scheme  Scheme
	adapter *Adapter
	width   int
	height  int

	touchIDs []ebiten.TouchID
	stick    common.Vec2
}

// NewSampler builds a sampler normalizing contact positions against the
// game's logical screen size.
func NewSampler(scheme Scheme, adapter *Adapter, width, height int) *Sampler {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Sampler{scheme: scheme, adapter: adapter, width: width, height: height}
}

func (s *Sampler) Scheme() Scheme {
	return s.scheme
}

// Update polls devices for this frame. Call before Adapter.Tick.
func (s *Sampler) Update() {
	switch s.scheme {
	case SchemeTouch:
		s.pollContacts()
	case SchemeGamepad:
		s.pollStick()
	}
}

// Direction returns the current steering direction and activity flag for
// the configured scheme.
func (s *Sampler) Direction() (common.Vec2, bool) {
	if s.scheme == SchemeGamepad {
		return s.stick, s.stick.Length() > 0
	}
	return s.adapter.Direction()
}

func (s *Sampler) pollContacts() {
	norm := func(x, y int) common.Vec2 {
		return common.Vec2{X: float64(x) / float64(s.width), Y: float64(y) / float64(s.height)}
	}

	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		s.adapter.BeginContact(norm(x, y), ContactID(id))
	}

	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		x, y := ebiten.TouchPosition(id)
		s.adapter.MoveContact(norm(x, y), ContactID(id))
	}

	for _, id := range inpututil.AppendJustReleasedTouchIDs(nil) {
		x, y := inpututil.TouchPositionInPreviousTick(id)
		s.adapter.EndContact(norm(x, y), ContactID(id))
	}

	mx, my := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		s.adapter.BeginContact(norm(mx, my), MouseContact)
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.adapter.MoveContact(norm(mx, my), MouseContact)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		s.adapter.EndContact(norm(mx, my), MouseContact)
	}
}

func (s *Sampler) pollStick() {
	s.stick = common.Vec2{}
	ids := ebiten.AppendGamepadIDs(nil)
	if len(ids) == 0 {
		return
	}
	id := ids[0]
	x := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	y := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if math.Hypot(x, y) <= stickDeadZone {
		return
	}
	s.stick = common.Vec2{X: x, Y: y}.ClampLength(1.0)
}
