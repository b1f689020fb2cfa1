package backend

import "github.com/mawasi/wayfarer/common"

// arriveRadius is the distance at which the agent starts slowing into its
// destination to avoid orbiting it at full speed.
const arriveRadius = 24.0

// NavAgent is a minimal pathing agent: straight-line steering with arrival
// slow-down. It stands in for a full navigation mesh agent in the demo; the
// controller never sees past the Agent interface.
type NavAgent struct {
	active  bool
	speed   float64
	pos     common.Vec2
	heading common.Vec2

	target    common.Vec2
	hasTarget bool
	velocity  float64
}

func NewNavAgent(pos common.Vec2) *NavAgent {
	return &NavAgent{pos: pos, heading: common.Vec2{X: 1}}
}

func (a *NavAgent) SetActive(active bool) {
	a.active = active
	if !active {
		a.hasTarget = false
		a.velocity = 0
	}
}

func (a *NavAgent) Active() bool {
	return a.active
}

func (a *NavAgent) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	a.speed = speed
}

func (a *NavAgent) MoveTo(dest common.Vec2) {
	if !a.active {
		return
	}
	a.target = dest
	a.hasTarget = true
}

func (a *NavAgent) Stop() {
	a.hasTarget = false
	a.velocity = 0
}

func (a *NavAgent) Face(dir common.Vec2) {
	if n := dir.Normalized(); n.Length() > 0 {
		a.heading = n
	}
}

func (a *NavAgent) Heading() common.Vec2 {
	return a.heading
}

func (a *NavAgent) Position() common.Vec2 {
	return a.pos
}

func (a *NavAgent) SetPosition(pos common.Vec2) {
	a.pos = pos
	a.hasTarget = false
	a.velocity = 0
}

func (a *NavAgent) ReportedVelocity() float64 {
	return a.velocity
}

// Step advances the agent by dt seconds.
func (a *NavAgent) Step(dt float64) {
	if !a.active || !a.hasTarget || dt <= 0 {
		a.velocity = 0
		return
	}
	offset := a.target.Sub(a.pos)
	dist := offset.Length()
	if dist == 0 {
		a.velocity = 0
		return
	}

	speed := a.speed
	if dist < arriveRadius {
		speed *= dist / arriveRadius
	}
	step := speed * dt
	if step >= dist {
		a.pos = a.target
		a.velocity = dist / dt
		a.heading = offset.Normalized()
		return
	}
	dir := offset.Normalized()
	a.pos = a.pos.Add(dir.Scale(step))
	a.heading = dir
	a.velocity = speed
}
