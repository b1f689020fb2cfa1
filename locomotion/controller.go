// Package locomotion owns the mode state machine that decides which
// locomotion backend drives a character, what speed and direction it
// receives, and how scripted movement commands interrupt and hand back
// player control.
package locomotion

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/mawasi/wayfarer/backend"
	"github.com/mawasi/wayfarer/common"
	"github.com/mawasi/wayfarer/input"
	"github.com/mawasi/wayfarer/speed"
)

// speedEpsilon is the band inside which eased speed snaps to target.
const speedEpsilon = 0.5

// leadDistance converts a steering direction into an agent destination a
// short way ahead of the character.
const leadDistance = 64.0

// DirectionSource supplies the per-tick steering direction and activity
// flag, normally the input sampler.
type DirectionSource interface {
	Direction() (common.Vec2, bool)
}

// Affordance is the on-screen joystick visual toggled on mode transitions
// under the touch scheme.
type Affordance interface {
	SetVisible(visible bool)
}

// Config carries the collaborator references a controller is constructed
// with. All references are explicit; the controller never looks anything up
// globally.
type Config struct {
	Agent backend.Agent
	Mover backend.Mover
	Sink  backend.AnimationSink

	Speeds     *speed.Table
	Mods       speed.ModifierSource
	ModChanges *speed.Signal

	Source     DirectionSource
	Scheme     input.Scheme
	Affordance Affordance

	// TickRate is the fixed simulation rate; zero selects 60.
	TickRate int
	Debug    bool
}

// command is an outstanding scripted movement request, checked against its
// deadline every tick.
type command struct {
	dest          common.Vec2
	stop          float64
	deadline      int
	interruptible bool
	done          func(reached bool)
}

// Controller is the locomotion state machine for a single character. It is
// owned by that character and mutated only from the per-tick update path and
// explicit calls made from the same goroutine.
type Controller struct {
	cfg      Config
	tickRate int
	dt       float64

	enabled bool
	mode    Mode
	tier    speed.Tier

	currentSpeed float64
	targetSpeed  float64
	multiplier   float64

	interruptible bool
	busy          bool

	gameState  GameState
	reaction   Reaction
	rootMotion bool

	pending    *command
	reactivate bool

	notices NoticeQueue
	ticks   int
}

// New validates collaborator references and builds a controller in the
// resting state. Missing collaborators are programmer errors.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Agent == nil:
		return nil, fmt.Errorf("locomotion: nil agent backend")
	case cfg.Mover == nil:
		return nil, fmt.Errorf("locomotion: nil mover backend")
	case cfg.Sink == nil:
		return nil, fmt.Errorf("locomotion: nil animation sink")
	case cfg.Speeds == nil:
		return nil, fmt.Errorf("locomotion: nil speed table")
	case cfg.Mods == nil:
		return nil, fmt.Errorf("locomotion: nil modifier source")
	case cfg.Source == nil:
		return nil, fmt.Errorf("locomotion: nil direction source")
	}
	rate := cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	c := &Controller{
		cfg:           cfg,
		tickRate:      rate,
		dt:            1.0 / float64(rate),
		enabled:       true,
		mode:          ModeNone,
		tier:          speed.TierIdle,
		interruptible: true,
	}
	c.multiplier = cfg.Mods.Multiplier(speed.CategoryMovement)
	c.recomputeTarget()
	return c, nil
}

// Notices is the queue external sources (game state, reactions, animation
// events) push into. Drained once per tick.
func (c *Controller) Notices() *NoticeQueue {
	return &c.notices
}

// Mode returns the active locomotion mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Tier returns the current speed tier.
func (c *Controller) Tier() speed.Tier {
	return c.tier
}

// CurrentSpeed returns the eased speed currently fed to the active backend.
func (c *Controller) CurrentSpeed() float64 {
	return c.currentSpeed
}

// TargetSpeed returns the speed the eased value is approaching.
func (c *Controller) TargetSpeed() float64 {
	return c.targetSpeed
}

// Interruptible reports whether an outstanding scripted command has locked
// out interruptions.
func (c *Controller) Interruptible() bool {
	return c.interruptible
}

// Position returns the character position as reported by the backends.
func (c *Controller) Position() common.Vec2 {
	if c.mode == ModeController {
		return c.cfg.Mover.Position()
	}
	return c.cfg.Agent.Position()
}

// Permission derives the current command permission from mode and
// contextual state.
func (c *Controller) Permission() Permission {
	switch c.mode {
	case ModeAgent, ModeController:
		if c.busy {
			return PermissionRotationOnly
		}
		return PermissionFull
	default:
		return PermissionNone
	}
}

// SetBusy marks a constrained contextual state (an attack animation in
// progress) during which input may only set facing.
func (c *Controller) SetBusy(busy bool) {
	c.busy = busy
}

// SetTable swaps the speed table (profile hot reload) and recomputes the
// target speed for the current tier.
func (c *Controller) SetTable(t *speed.Table) {
	if t == nil {
		return
	}
	c.cfg.Speeds = t
	c.recomputeTarget()
}

// Update advances the controller one simulation tick.
func (c *Controller) Update() {
	if !c.enabled {
		return
	}
	c.ticks++

	// a teleport from last tick finishes here, after the backend transform
	// sync has settled
	if c.reactivate {
		c.setBackendActive(c.mode, true)
		c.reactivate = false
		// the backend dropped its target on the position write; a scripted
		// command keeps going from the new position
		if c.pending != nil && c.mode == ModeAgent {
			c.cfg.Agent.MoveTo(c.pending.dest)
		}
	}

	c.drainNotices()
	c.drainModChanges()

	perm := c.Permission()
	c.selectTier(perm)
	c.easeSpeed()
	c.forwardSpeed()
	c.routeInput(perm)
	c.checkCommand()
	c.forwardVelocity()
}

// SendAndReturn issues a scripted movement command toward dest. Scripted
// movement is always path-based, so the mode is forced to the agent backend.
// The completion callback fires exactly once on a future tick: reached=true
// on arrival within stopDistance, reached=false when timeout elapses first
// or the command is cancelled. Returns false when a non-interruptible
// command is already outstanding; the new callback is then never invoked.
func (c *Controller) SendAndReturn(dest common.Vec2, tier speed.Tier, interruptible bool, stopDistance float64, timeout time.Duration, done func(reached bool)) bool {
	if !c.enabled {
		return false
	}
	if c.pending != nil && !c.pending.interruptible {
		c.debugf("locomotion: scripted command rejected, non-interruptible command outstanding")
		return false
	}
	if c.pending != nil {
		c.cancelCommand()
	}

	if _, ok := c.cfg.Speeds.Base(tier); !ok {
		tier = c.cfg.Speeds.DefaultTier()
	}
	if stopDistance < 0 {
		stopDistance = 0
	}

	c.applyMode(ModeAgent)
	c.interruptible = interruptible
	c.setTier(tier)

	ticks := int(math.Ceil(timeout.Seconds() * float64(c.tickRate)))
	if ticks < 1 {
		ticks = 1
	}
	c.pending = &command{
		dest:          dest,
		stop:          stopDistance,
		deadline:      c.ticks + ticks,
		interruptible: interruptible,
		done:          done,
	}
	c.cfg.Agent.SetSpeed(c.currentSpeed)
	c.cfg.Agent.MoveTo(dest)
	return true
}

// SetPosition teleports the character. The active backend is deactivated
// for the rest of this tick and reactivated on the next tick boundary so it
// does not try to correct the jump as a collision.
func (c *Controller) SetPosition(pos common.Vec2) {
	c.setBackendActive(c.mode, false)
	c.cfg.Agent.SetPosition(pos)
	c.cfg.Mover.SetPosition(pos)
	if c.mode == ModeAgent || c.mode == ModeController {
		c.reactivate = true
	}
}

// FaceDirection turns the character toward a world position without moving.
func (c *Controller) FaceDirection(pos common.Vec2) {
	dir := pos.Sub(c.Position())
	if dir.Length() == 0 {
		return
	}
	c.face(dir)
}

// Disable force-cancels everything: the pending scripted command resolves
// with reached=false (a silently dropped callback would leak an unresolved
// caller expectation), backends deactivate, and the mode rests at none.
func (c *Controller) Disable() {
	if !c.enabled {
		return
	}
	if c.pending != nil {
		c.cancelCommand()
	}
	c.setBackendActive(c.mode, false)
	c.mode = ModeNone
	c.reactivate = false
	c.currentSpeed = 0
	c.targetSpeed = 0
	c.enabled = false
	if c.cfg.Affordance != nil && c.cfg.Scheme == input.SchemeTouch {
		c.cfg.Affordance.SetVisible(false)
	}
}

// Enable re-enables a disabled controller in the resting state.
func (c *Controller) Enable() {
	c.enabled = true
}

func (c *Controller) drainNotices() {
	for _, n := range c.notices.Drain() {
		switch n.Kind {
		case NoticeGameState:
			c.gameState = n.State
			c.restoreMode()
		case NoticeReaction:
			c.reaction = n.Reaction
			if n.Reaction != ReactionNone {
				c.requestMode(ModeAnimation)
			} else {
				c.restoreMode()
			}
		case NoticeRootMotion:
			c.rootMotion = n.On
			if n.On {
				c.requestMode(ModeAnimation)
			} else {
				c.restoreMode()
			}
		}
	}
}

func (c *Controller) drainModChanges() {
	if c.cfg.ModChanges == nil {
		return
	}
	for _, cat := range c.cfg.ModChanges.Drain() {
		if cat != speed.CategoryMovement {
			continue
		}
		c.multiplier = c.cfg.Mods.Multiplier(speed.CategoryMovement)
		c.recomputeTarget()
	}
}

// selectTier applies the permission-driven tier rules. While a scripted
// command is outstanding its requested tier stays in force.
func (c *Controller) selectTier(perm Permission) {
	if c.pending != nil {
		return
	}
	switch perm {
	case PermissionNone:
		if c.targetSpeed != 0 {
			c.tier = speed.TierIdle
			c.targetSpeed = 0
		}
	case PermissionFull:
		if def := c.cfg.Speeds.DefaultTier(); c.tier != def {
			c.setTier(def)
		}
	case PermissionRotationOnly:
		if c.tier != speed.TierIdle {
			c.setTier(speed.TierIdle)
		}
	}
}

// easeSpeed moves currentSpeed toward targetSpeed linearly, snapping once
// within epsilon.
func (c *Controller) easeSpeed() {
	diff := c.targetSpeed - c.currentSpeed
	step := c.cfg.Speeds.EaseRate() * c.dt
	if math.Abs(diff) <= step || math.Abs(diff) <= speedEpsilon {
		c.currentSpeed = c.targetSpeed
		return
	}
	if diff > 0 {
		c.currentSpeed += step
	} else {
		c.currentSpeed -= step
	}
}

func (c *Controller) forwardSpeed() {
	switch c.mode {
	case ModeAgent:
		c.cfg.Agent.SetSpeed(c.currentSpeed)
	case ModeController:
		c.cfg.Mover.SetSpeed(c.currentSpeed)
	}
}

func (c *Controller) routeInput(perm Permission) {
	if perm == PermissionNone || c.pending != nil {
		return
	}
	dir, active := c.cfg.Source.Direction()
	if !active {
		return
	}
	if perm == PermissionRotationOnly {
		c.face(dir)
		return
	}
	switch c.mode {
	case ModeAgent:
		dest := c.cfg.Agent.Position().Add(dir.Normalized().Scale(leadDistance))
		c.cfg.Agent.MoveTo(dest)
	case ModeController:
		c.cfg.Mover.MoveDirect(dir)
	}
}

// checkCommand resolves an outstanding scripted command: arrival first,
// then deadline, then loss of the agent mode (a forced transition while the
// command was interruptible).
func (c *Controller) checkCommand() {
	if c.pending == nil {
		return
	}
	if c.mode != ModeAgent {
		c.finishCommand(false)
		return
	}
	dist := c.cfg.Agent.Position().DistanceTo(c.pending.dest)
	if dist <= c.pending.stop {
		c.finishCommand(true)
		return
	}
	if c.ticks >= c.pending.deadline {
		c.finishCommand(false)
	}
}

func (c *Controller) forwardVelocity() {
	var v float64
	switch c.mode {
	case ModeAgent:
		v = c.cfg.Agent.ReportedVelocity()
	case ModeController:
		v = c.cfg.Mover.ReportedVelocity()
	}
	c.cfg.Sink.SetVelocityParameter(v)
}

// finishCommand resolves the pending command, restores interruptibility and
// the mode appropriate to the current game state, then invokes the callback
// exactly once.
func (c *Controller) finishCommand(reached bool) {
	cmd := c.pending
	c.pending = nil
	c.interruptible = true
	c.cfg.Agent.Stop()
	c.restoreMode()
	if cmd.done != nil {
		cmd.done(reached)
	}
}

// cancelCommand resolves the pending command as not reached without a mode
// restore; the caller is about to install new state.
func (c *Controller) cancelCommand() {
	cmd := c.pending
	c.pending = nil
	c.interruptible = true
	c.cfg.Agent.Stop()
	if cmd.done != nil {
		cmd.done(false)
	}
}

// restoreMode picks the mode the current external state calls for.
func (c *Controller) restoreMode() {
	if c.reaction != ReactionNone || c.rootMotion {
		c.requestMode(ModeAnimation)
		return
	}
	if c.gameState == StatePlay {
		c.requestMode(c.playMode())
		return
	}
	c.requestMode(ModeNone)
}

// playMode is the player-driven mode for the configured input scheme:
// device-based control steers the kinematic controller directly, touch
// control routes through the pathing agent.
func (c *Controller) playMode() Mode {
	if c.cfg.Scheme == input.SchemeGamepad {
		return ModeController
	}
	return ModeAgent
}

// requestMode applies a transition unless the guard rejects it: entering
// the controller or animation mode is refused while a non-interruptible
// scripted command owns control.
func (c *Controller) requestMode(m Mode) bool {
	if m == c.mode {
		return true
	}
	if (m == ModeController || m == ModeAnimation) && !c.interruptible {
		c.debugf("locomotion: transition to %s rejected, command lock held", m)
		return false
	}
	c.applyMode(m)
	return true
}

// applyMode performs the transition: previous backend off, next backend on,
// affordance toggled under the touch scheme.
func (c *Controller) applyMode(m Mode) {
	if m == c.mode {
		return
	}
	c.setBackendActive(c.mode, false)
	c.mode = m
	c.reactivate = false
	c.setBackendActive(m, true)

	if c.cfg.Affordance != nil && c.cfg.Scheme == input.SchemeTouch {
		c.cfg.Affordance.SetVisible(m == ModeAgent || m == ModeController)
	}
}

func (c *Controller) setBackendActive(m Mode, active bool) {
	switch m {
	case ModeAgent:
		c.cfg.Agent.SetActive(active)
	case ModeController:
		c.cfg.Mover.SetActive(active)
	}
}

func (c *Controller) setTier(t speed.Tier) {
	c.tier = t
	c.recomputeTarget()
}

func (c *Controller) recomputeTarget() {
	c.targetSpeed = c.cfg.Speeds.Target(c.tier, c.multiplier)
}

func (c *Controller) face(dir common.Vec2) {
	switch c.mode {
	case ModeAgent:
		c.cfg.Agent.Face(dir)
	case ModeController:
		c.cfg.Mover.Face(dir)
	}
}

func (c *Controller) debugf(format string, args ...any) {
	if c.cfg.Debug {
		log.Printf(format, args...)
	}
}
