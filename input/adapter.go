package input

import (
	"github.com/mawasi/wayfarer/common"
)

// ContactID identifies a pointer contact (touch finger or mouse button).
type ContactID int64

// MouseContact is the synthetic contact id used for the mouse pointer.
const MouseContact ContactID = -1

// DefaultDeadZone is the fraction of the clamp radius below which a
// displacement carries no directional intent.
const DefaultDeadZone = 0.10

// HitTester resolves whether a screen-normalized position lands on a UI
// element or a clickable world object. A nil tester means movement always
// wins.
type HitTester interface {
	HitUI(pos common.Vec2) bool
	HitWorldObject(pos common.Vec2) bool
}

// Releaser receives a synthesized release for a press that was claimed by a
// UI element after the fact.
type Releaser interface {
	Release(pos common.Vec2)
}

// pendingContact is a begin event held for one tick so UI hit-testing can
// settle after layout runs.
type pendingContact struct {
	id  ContactID
	pos common.Vec2
}

// session is the single primary contact driving directional input.
type session struct {
	id     ContactID
	anchor common.Vec2
	dir    common.Vec2
	active bool
}

// watch is an armed external-release slot.
type watch struct {
	id     ContactID
	pos    common.Vec2
	target Releaser
	seen   bool
}

// Adapter converts raw contact events into one normalized direction vector
// and an activity flag. At most one primary session exists at a time; presses
// that begin over UI or clickable world objects never become sessions.
type Adapter struct {
	radius   float64
	deadZone float64
	tester   HitTester

	pending []pendingContact
	sess    *session
	watches []watch
}

// NewAdapter creates an adapter with the given clamp radius in
// screen-normalized units. deadZone is a fraction of the radius; zero or
// negative selects the default.
func NewAdapter(radius float64, deadZone float64, tester HitTester) *Adapter {
	if radius <= 0 {
		radius = 0.15
	}
	if deadZone <= 0 {
		deadZone = DefaultDeadZone
	}
	return &Adapter{radius: radius, deadZone: deadZone, tester: tester}
}

// BeginContact records a new contact. The movement-vs-UI decision is
// deferred to the next Tick. Duplicate ids are ignored.
func (a *Adapter) BeginContact(pos common.Vec2, id ContactID) {
	if a.sess != nil && a.sess.id == id {
		return
	}
	for i := range a.pending {
		if a.pending[i].id == id {
			return
		}
	}
	a.markSeen(id)
	a.pending = append(a.pending, pendingContact{id: id, pos: pos})
}

// MoveContact updates the position of a tracked contact. Unknown ids are
// ignored.
func (a *Adapter) MoveContact(pos common.Vec2, id ContactID) {
	a.markSeen(id)
	if a.sess != nil && a.sess.id == id {
		a.retarget(pos)
		return
	}
	for i := range a.pending {
		if a.pending[i].id == id {
			// anchor stays at the begin position; only note it moved
			return
		}
	}
}

// EndContact releases a tracked contact. A primary session clears and the
// direction resets to zero. A pending contact that ends before promotion
// produced no directional input and is dropped.
func (a *Adapter) EndContact(pos common.Vec2, id ContactID) {
	kept := a.watches[:0]
	for _, w := range a.watches {
		if w.id == id {
			w.target.Release(pos)
			continue
		}
		kept = append(kept, w)
	}
	a.watches = kept
	if a.sess != nil && a.sess.id == id {
		a.sess = nil
		return
	}
	for i := range a.pending {
		if a.pending[i].id == id {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return
		}
	}
}

// WatchExternalRelease arms a slot that synthesizes a release on target when
// the identified contact ends, or on the next Tick if no such contact shows
// up. Used to hand a press back to a UI element that claimed it after
// deferred hit-testing.
func (a *Adapter) WatchExternalRelease(id ContactID, approx common.Vec2, target Releaser) {
	if target == nil {
		return
	}
	w := watch{id: id, pos: approx, target: target}
	if a.sess != nil && a.sess.id == id {
		// the press now belongs to the UI element; stop steering with it
		w.seen = true
		a.sess = nil
	}
	for i := range a.pending {
		if a.pending[i].id == id {
			w.seen = true
		}
	}
	a.watches = append(a.watches, w)
}

// Tick promotes or drops deferred contacts and expires stale watch slots.
// Call once per simulation tick after the frame's contact events.
func (a *Adapter) Tick() {
	for _, p := range a.pending {
		if a.tester != nil && (a.tester.HitUI(p.pos) || a.tester.HitWorldObject(p.pos)) {
			continue
		}
		if a.sess != nil {
			continue
		}
		a.sess = &session{id: p.id, anchor: p.pos}
	}
	a.pending = a.pending[:0]

	// a watch slot that saw no matching contact by the end of the tick
	// synthesizes its release immediately
	kept := a.watches[:0]
	for _, w := range a.watches {
		if !w.seen {
			w.target.Release(w.pos)
			continue
		}
		kept = append(kept, w)
	}
	a.watches = kept
}

// CancelAll force-cancels the active session and all deferred state without
// emitting any release notification. Called on component disable.
func (a *Adapter) CancelAll() {
	a.sess = nil
	a.pending = nil
	a.watches = nil
}

// Direction returns the current normalized direction and whether a session
// is actively steering beyond the dead zone.
func (a *Adapter) Direction() (common.Vec2, bool) {
	if a.sess == nil || !a.sess.active {
		return common.Vec2{}, false
	}
	return a.sess.dir, true
}

func (a *Adapter) retarget(pos common.Vec2) {
	offset := pos.Sub(a.sess.anchor)
	if offset.Length() < a.radius*a.deadZone {
		a.sess.dir = common.Vec2{}
		a.sess.active = false
		return
	}
	clamped := offset.ClampLength(a.radius)
	a.sess.dir = clamped.Scale(1.0 / a.radius)
	a.sess.active = true
}

func (a *Adapter) markSeen(id ContactID) {
	for i := range a.watches {
		if a.watches[i].id == id {
			a.watches[i].seen = true
		}
	}
}
