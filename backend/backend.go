// Package backend defines the interchangeable locomotion implementations a
// character can be bound to. The locomotion controller only ever talks to
// these interfaces; exactly one backend is active at a time.
package backend

import "github.com/mawasi/wayfarer/common"

// Agent is a pathfinding-driven backend: it receives destinations and steers
// toward them on its own.
type Agent interface {
	SetActive(active bool)
	SetSpeed(speed float64)
	MoveTo(dest common.Vec2)
	Stop()
	Face(dir common.Vec2)
	Position() common.Vec2
	SetPosition(pos common.Vec2)
	ReportedVelocity() float64
}

// Mover is a kinematic-controller backend: it receives direct movement
// vectors and resolves collisions itself.
type Mover interface {
	SetActive(active bool)
	SetSpeed(speed float64)
	MoveDirect(dir common.Vec2)
	Face(dir common.Vec2)
	Position() common.Vec2
	SetPosition(pos common.Vec2)
	ReportedVelocity() float64
}

// AnimationSink receives the velocity magnitude that drives animation
// parameters.
type AnimationSink interface {
	SetVelocityParameter(v float64)
}
