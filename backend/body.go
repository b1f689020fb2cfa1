package backend

import (
	"github.com/jakecoffman/cp"

	"github.com/mawasi/wayfarer/common"
)

// NewSpace builds a zero-gravity chipmunk space with static boundary
// segments around the given rectangle.
func NewSpace(minX, minY, maxX, maxY float64) *cp.Space {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})

	corners := []cp.Vector{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		seg := space.AddShape(cp.NewSegment(space.StaticBody, a, b, 1))
		seg.SetElasticity(0)
		seg.SetFriction(0.7)
	}
	return space
}

// Body is the kinematic-controller backend: a chipmunk body driven by
// direct velocity vectors, with collisions resolved by the space.
type Body struct {
	space *cp.Space
	body  *cp.Body
	shape *cp.Shape

	active bool
	speed  float64
}

func NewBody(space *cp.Space, pos common.Vec2, radius float64) *Body {
	body := space.AddBody(cp.NewBody(1, cp.INFINITY))
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})

	shape := space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetElasticity(0)
	shape.SetFriction(0.7)

	return &Body{space: space, body: body, shape: shape}
}

func (b *Body) SetActive(active bool) {
	b.active = active
	if !active {
		b.body.SetVelocityVector(cp.Vector{})
	}
}

func (b *Body) Active() bool {
	return b.active
}

func (b *Body) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	b.speed = speed
}

// MoveDirect sets the body velocity from a steering vector. The vector's
// magnitude scales the configured speed, so a half-tilted stick moves at
// half speed.
func (b *Body) MoveDirect(dir common.Vec2) {
	if !b.active {
		return
	}
	v := dir.ClampLength(1.0).Scale(b.speed)
	b.body.SetVelocityVector(cp.Vector{X: v.X, Y: v.Y})
}

func (b *Body) Face(dir common.Vec2) {
	if n := dir.Normalized(); n.Length() > 0 {
		b.body.SetAngle(cp.Vector{X: n.X, Y: n.Y}.ToAngle())
	}
}

func (b *Body) Position() common.Vec2 {
	p := b.body.Position()
	return common.Vec2{X: p.X, Y: p.Y}
}

// SetPosition writes the body transform directly and reindexes its shapes so
// the next space step does not try to resolve the jump as a collision.
func (b *Body) SetPosition(pos common.Vec2) {
	b.body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	b.body.SetVelocityVector(cp.Vector{})
	b.space.ReindexShapesForBody(b.body)
}

func (b *Body) ReportedVelocity() float64 {
	v := b.body.Velocity()
	return common.Vec2{X: v.X, Y: v.Y}.Length()
}
