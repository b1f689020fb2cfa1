package locomotion

import (
	"math"
	"testing"
	"time"

	"github.com/mawasi/wayfarer/common"
	"github.com/mawasi/wayfarer/input"
	"github.com/mawasi/wayfarer/speed"
)

type fakeAgent struct {
	active   bool
	speed    float64
	pos      common.Vec2
	dest     common.Vec2
	hasDest  bool
	moves    int
	stops    int
	faced    []common.Vec2
	velocity float64
}

func (f *fakeAgent) SetActive(a bool)          { f.active = a }
func (f *fakeAgent) SetSpeed(s float64)        { f.speed = s }
func (f *fakeAgent) MoveTo(d common.Vec2)      { f.dest, f.hasDest = d, true; f.moves++ }
func (f *fakeAgent) Stop()                     { f.hasDest = false; f.stops++ }
func (f *fakeAgent) Face(d common.Vec2)        { f.faced = append(f.faced, d) }
func (f *fakeAgent) Position() common.Vec2     { return f.pos }
func (f *fakeAgent) SetPosition(p common.Vec2) { f.pos = p }
func (f *fakeAgent) ReportedVelocity() float64 { return f.velocity }

type fakeMover struct {
	active   bool
	speed    float64
	pos      common.Vec2
	moves    []common.Vec2
	faced    []common.Vec2
	velocity float64
}

func (f *fakeMover) SetActive(a bool)          { f.active = a }
func (f *fakeMover) SetSpeed(s float64)        { f.speed = s }
func (f *fakeMover) MoveDirect(d common.Vec2)  { f.moves = append(f.moves, d) }
func (f *fakeMover) Face(d common.Vec2)        { f.faced = append(f.faced, d) }
func (f *fakeMover) Position() common.Vec2     { return f.pos }
func (f *fakeMover) SetPosition(p common.Vec2) { f.pos = p }
func (f *fakeMover) ReportedVelocity() float64 { return f.velocity }

type fakeSink struct {
	last float64
}

func (f *fakeSink) SetVelocityParameter(v float64) { f.last = v }

type fakeMods struct {
	mult    float64
	changes speed.Signal
}

func (f *fakeMods) Multiplier(cat speed.Category) float64 { return f.mult }

type fakeSource struct {
	dir    common.Vec2
	active bool
}

func (f *fakeSource) Direction() (common.Vec2, bool) { return f.dir, f.active }

type fakeAffordance struct {
	visible []bool
}

func (f *fakeAffordance) SetVisible(v bool) { f.visible = append(f.visible, v) }

type harness struct {
	agent      *fakeAgent
	mover      *fakeMover
	sink       *fakeSink
	mods       *fakeMods
	source     *fakeSource
	affordance *fakeAffordance
	ctrl       *Controller
}

func newHarness(t *testing.T, scheme input.Scheme) *harness {
	t.Helper()
	table, err := speed.NewTable(speed.TableSpec{
		DefaultTier: "run",
		EaseRate:    600,
		Tiers:       map[string]float64{"idle": 0, "walk": 90, "run": 180, "sprint": 260},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	h := &harness{
		agent:      &fakeAgent{},
		mover:      &fakeMover{},
		sink:       &fakeSink{},
		mods:       &fakeMods{mult: 1.0},
		source:     &fakeSource{},
		affordance: &fakeAffordance{},
	}
	h.ctrl, err = New(Config{
		Agent:      h.agent,
		Mover:      h.mover,
		Sink:       h.sink,
		Speeds:     table,
		Mods:       h.mods,
		ModChanges: &h.mods.changes,
		Source:     h.source,
		Scheme:     scheme,
		Affordance: h.affordance,
		TickRate:   60,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func (h *harness) enterPlay() {
	h.ctrl.Notices().PushGameState(StatePlay)
	h.ctrl.Update()
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	table, _ := speed.NewTable(speed.TableSpec{Tiers: map[string]float64{"idle": 0, "run": 1}})
	base := Config{
		Agent:  &fakeAgent{},
		Mover:  &fakeMover{},
		Sink:   &fakeSink{},
		Speeds: table,
		Mods:   &fakeMods{mult: 1},
		Source: &fakeSource{},
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil_agent", func(c *Config) { c.Agent = nil }},
		{"nil_mover", func(c *Config) { c.Mover = nil }},
		{"nil_sink", func(c *Config) { c.Sink = nil }},
		{"nil_speeds", func(c *Config) { c.Speeds = nil }},
		{"nil_mods", func(c *Config) { c.Mods = nil }},
		{"nil_source", func(c *Config) { c.Source = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatalf("expected constructor error")
			}
		})
	}

	if _, err := New(base); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestSchemeSelectsPlayMode(t *testing.T) {
	touch := newHarness(t, input.SchemeTouch)
	touch.enterPlay()
	if touch.ctrl.Mode() != ModeAgent {
		t.Errorf("touch scheme mode = %s, want agent", touch.ctrl.Mode())
	}
	if !touch.agent.active {
		t.Errorf("agent backend not activated")
	}

	pad := newHarness(t, input.SchemeGamepad)
	pad.enterPlay()
	if pad.ctrl.Mode() != ModeController {
		t.Errorf("gamepad scheme mode = %s, want controller", pad.ctrl.Mode())
	}
	if !pad.mover.active {
		t.Errorf("mover backend not activated")
	}
}

func TestAffordanceOnlyUnderTouchScheme(t *testing.T) {
	touch := newHarness(t, input.SchemeTouch)
	touch.enterPlay()
	if len(touch.affordance.visible) == 0 || !touch.affordance.visible[len(touch.affordance.visible)-1] {
		t.Errorf("touch scheme did not show the affordance on entering play")
	}
	touch.ctrl.Notices().PushGameState(StateMenu)
	touch.ctrl.Update()
	if touch.affordance.visible[len(touch.affordance.visible)-1] {
		t.Errorf("affordance still visible in menu")
	}

	pad := newHarness(t, input.SchemeGamepad)
	pad.enterPlay()
	pad.ctrl.Notices().PushGameState(StateMenu)
	pad.ctrl.Update()
	if len(pad.affordance.visible) != 0 {
		t.Errorf("gamepad scheme touched the affordance %d times", len(pad.affordance.visible))
	}
}

func TestSpeedEasingConvergesWithoutOvershoot(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	// target is the run tier at full multiplier: 180; step is 600/60 = 10
	prev := h.ctrl.CurrentSpeed()
	for i := 0; i < 60; i++ {
		h.ctrl.Update()
		cur := h.ctrl.CurrentSpeed()
		if cur > h.ctrl.TargetSpeed()+1e-9 {
			t.Fatalf("tick %d: currentSpeed %v overshot target %v", i, cur, h.ctrl.TargetSpeed())
		}
		if cur < prev {
			t.Fatalf("tick %d: convergence not monotonic (%v -> %v)", i, prev, cur)
		}
		if cur-prev > 10+1e-9 {
			t.Fatalf("tick %d: step %v exceeds per-tick rate", i, cur-prev)
		}
		prev = cur
	}
	if h.ctrl.CurrentSpeed() != 180 {
		t.Errorf("currentSpeed = %v, want exactly 180 after snap", h.ctrl.CurrentSpeed())
	}
}

func TestModifierChangeRescalesTarget(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	h.mods.mult = 0.5
	h.mods.changes.Push(speed.CategoryMovement)
	h.ctrl.Update()

	// 180 * lerp(0.2, 1.0, 0.5) = 108
	if got := h.ctrl.TargetSpeed(); math.Abs(got-108) > 1e-9 {
		t.Errorf("targetSpeed = %v, want 108", got)
	}

	// unrelated categories leave the target alone
	h.mods.mult = 0.0
	h.mods.changes.Push(speed.Category("attack"))
	h.ctrl.Update()
	if got := h.ctrl.TargetSpeed(); math.Abs(got-108) > 1e-9 {
		t.Errorf("targetSpeed = %v, want 108 after unrelated change", got)
	}
}

func TestSetTableRecomputesTarget(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	if h.ctrl.TargetSpeed() != 180 {
		t.Fatalf("targetSpeed = %v before swap, want 180", h.ctrl.TargetSpeed())
	}
	for i := 0; i < 60; i++ {
		h.ctrl.Update()
	}

	faster, err := speed.NewTable(speed.TableSpec{
		DefaultTier: "run",
		EaseRate:    600,
		Tiers:       map[string]float64{"idle": 0, "walk": 90, "run": 240},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	h.ctrl.SetTable(faster)

	// the current tier's target recomputes on the swap itself, not on a
	// later tier change
	if h.ctrl.TargetSpeed() != 240 {
		t.Errorf("targetSpeed = %v after swap, want 240", h.ctrl.TargetSpeed())
	}
	if h.ctrl.Tier() != speed.TierRun {
		t.Errorf("tier = %s after swap, want run", h.ctrl.Tier())
	}

	prev := h.ctrl.CurrentSpeed()
	h.ctrl.Update()
	if h.ctrl.CurrentSpeed() <= prev {
		t.Errorf("easing did not resume toward the new target (%v -> %v)", prev, h.ctrl.CurrentSpeed())
	}
	for i := 0; i < 60; i++ {
		h.ctrl.Update()
	}
	if h.ctrl.CurrentSpeed() != 240 {
		t.Errorf("currentSpeed = %v, want 240 after convergence", h.ctrl.CurrentSpeed())
	}

	// a nil swap is ignored
	h.ctrl.SetTable(nil)
	if h.ctrl.TargetSpeed() != 240 {
		t.Errorf("targetSpeed = %v after nil swap, want 240", h.ctrl.TargetSpeed())
	}
}

func TestReactionForcesAnimationOnly(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	for i := 0; i < 30; i++ {
		h.ctrl.Update()
	}

	h.ctrl.Notices().PushReaction(ReactionFalling)
	h.ctrl.Update()

	if h.ctrl.Mode() != ModeAnimation {
		t.Errorf("mode = %s, want animation", h.ctrl.Mode())
	}
	if h.ctrl.Permission() != PermissionNone {
		t.Errorf("permission = %s, want none", h.ctrl.Permission())
	}
	if h.ctrl.TargetSpeed() != 0 {
		t.Errorf("targetSpeed = %v, want 0 within one tick", h.ctrl.TargetSpeed())
	}
	if h.agent.active {
		t.Errorf("agent backend still active")
	}

	h.ctrl.Notices().PushReaction(ReactionNone)
	h.ctrl.Update()
	if h.ctrl.Mode() != ModeAgent {
		t.Errorf("mode = %s after recovery, want agent", h.ctrl.Mode())
	}
}

func TestRotationOnlyWhileBusy(t *testing.T) {
	h := newHarness(t, input.SchemeGamepad)
	h.enterPlay()
	h.ctrl.SetBusy(true)

	if h.ctrl.Permission() != PermissionRotationOnly {
		t.Fatalf("permission = %s, want rotation", h.ctrl.Permission())
	}

	h.source.dir = common.Vec2{X: 1}
	h.source.active = true
	h.ctrl.Update()

	if len(h.mover.moves) != 0 {
		t.Errorf("movement issued under rotation-only permission")
	}
	if len(h.mover.faced) == 0 {
		t.Errorf("facing not issued under rotation-only permission")
	}
	if h.ctrl.Tier() != speed.TierIdle {
		t.Errorf("tier = %s, want idle while busy", h.ctrl.Tier())
	}

	h.ctrl.SetBusy(false)
	h.ctrl.Update()
	if h.ctrl.Tier() != speed.TierRun {
		t.Errorf("tier = %s after busy clears, want run", h.ctrl.Tier())
	}
	if len(h.mover.moves) == 0 {
		t.Errorf("movement not restored after busy clears")
	}
}

func TestInputRoutingPerMode(t *testing.T) {
	touch := newHarness(t, input.SchemeTouch)
	touch.enterPlay()
	touch.agent.pos = common.Vec2{X: 100, Y: 100}
	touch.source.dir = common.Vec2{X: 1}
	touch.source.active = true
	touch.ctrl.Update()
	if !touch.agent.hasDest {
		t.Fatalf("agent mode: no destination issued")
	}
	if touch.agent.dest.X <= 100 {
		t.Errorf("agent destination %+v not ahead of position", touch.agent.dest)
	}

	pad := newHarness(t, input.SchemeGamepad)
	pad.enterPlay()
	pad.source.dir = common.Vec2{X: 0, Y: -0.5}
	pad.source.active = true
	pad.ctrl.Update()
	if len(pad.mover.moves) != 1 {
		t.Fatalf("controller mode: moves = %d, want 1", len(pad.mover.moves))
	}
	if pad.mover.moves[0].Y != -0.5 {
		t.Errorf("controller mode passed %+v, want raw vector", pad.mover.moves[0])
	}
}

func TestSendAndReturnReachesDestination(t *testing.T) {
	h := newHarness(t, input.SchemeGamepad)
	h.enterPlay()

	var results []bool
	ok := h.ctrl.SendAndReturn(common.Vec2{X: 300, Y: 0}, speed.TierWalk, false, 5, time.Second, func(reached bool) {
		results = append(results, reached)
	})
	if !ok {
		t.Fatalf("command rejected")
	}
	if h.ctrl.Mode() != ModeAgent {
		t.Errorf("mode = %s, want agent forced for scripted movement", h.ctrl.Mode())
	}
	if h.ctrl.Interruptible() {
		t.Errorf("interruptible should be false while the command runs")
	}
	if h.ctrl.Tier() != speed.TierWalk {
		t.Errorf("tier = %s, want walk", h.ctrl.Tier())
	}

	h.ctrl.Update()
	if len(results) != 0 {
		t.Fatalf("callback fired before arrival")
	}

	h.agent.pos = common.Vec2{X: 297, Y: 0} // inside stop distance
	h.ctrl.Update()
	if len(results) != 1 || !results[0] {
		t.Fatalf("results = %v, want exactly one true", results)
	}
	if !h.ctrl.Interruptible() {
		t.Errorf("interruptible not restored")
	}
	if h.ctrl.Mode() != ModeController {
		t.Errorf("mode = %s, want controller restored for gamepad play", h.ctrl.Mode())
	}

	for i := 0; i < 10; i++ {
		h.ctrl.Update()
	}
	if len(results) != 1 {
		t.Errorf("callback fired again after completion")
	}
}

func TestSendAndReturnTimesOut(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var results []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 1000, Y: 0}, speed.TierRun, false, 1, 100*time.Millisecond, func(reached bool) {
		results = append(results, reached)
	})

	// 100ms at 60hz is 6 ticks
	for i := 0; i < 5; i++ {
		h.ctrl.Update()
		if len(results) != 0 {
			t.Fatalf("tick %d: callback fired before the deadline", i)
		}
	}
	h.ctrl.Update()
	if len(results) != 1 || results[0] {
		t.Fatalf("results = %v, want exactly one false at the deadline", results)
	}
	if !h.ctrl.Interruptible() {
		t.Errorf("interruptible not restored after timeout")
	}
}

func TestSendAndReturnRejectsWhileLocked(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var first, second []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, false, 1, time.Second, func(r bool) { first = append(first, r) })
	firstDest := h.agent.dest

	if ok := h.ctrl.SendAndReturn(common.Vec2{X: 9, Y: 9}, speed.TierSprint, true, 1, time.Second, func(r bool) { second = append(second, r) }); ok {
		t.Fatalf("second command accepted while locked")
	}

	if h.agent.dest != firstDest {
		t.Errorf("first command's destination disturbed")
	}
	if h.ctrl.Tier() != speed.TierRun {
		t.Errorf("tier = %s, want the first command's run tier", h.ctrl.Tier())
	}

	h.agent.pos = firstDest
	h.ctrl.Update()
	if len(first) != 1 || !first[0] {
		t.Errorf("first = %v, want one true", first)
	}
	if len(second) != 0 {
		t.Errorf("rejected command's callback invoked")
	}
}

func TestSendAndReturnReplacesInterruptible(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var first, second []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, true, 1, time.Second, func(r bool) { first = append(first, r) })
	if ok := h.ctrl.SendAndReturn(common.Vec2{X: 100, Y: 0}, speed.TierWalk, false, 5, time.Second, func(r bool) { second = append(second, r) }); !ok {
		t.Fatalf("replacement rejected")
	}

	if len(first) != 1 || first[0] {
		t.Fatalf("first = %v, want one false on cancellation", first)
	}

	h.agent.pos = common.Vec2{X: 100, Y: 0}
	h.ctrl.Update()
	if len(second) != 1 || !second[0] {
		t.Errorf("second = %v, want one true", second)
	}
}

func TestSendAndReturnDegenerateDestination(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	h.agent.pos = common.Vec2{X: 50, Y: 50}

	var results []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 50, Y: 50}, speed.TierRun, false, 0, time.Second, func(r bool) {
		results = append(results, r)
	})
	h.ctrl.Update()
	if len(results) != 1 || !results[0] {
		t.Errorf("results = %v, want already-arrived to complete as reached", results)
	}
}

func TestGuardBlocksTransitionsWhileLocked(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, false, 1, time.Second, func(bool) {})

	h.ctrl.Notices().PushReaction(ReactionFalling)
	h.ctrl.Update()
	if h.ctrl.Mode() != ModeAgent {
		t.Errorf("mode = %s, want agent held against the reaction", h.ctrl.Mode())
	}

	// once the command resolves, the stored reaction takes over
	h.agent.pos = common.Vec2{X: 500, Y: 0}
	h.ctrl.Update()
	if h.ctrl.Mode() != ModeAnimation {
		t.Errorf("mode = %s after resolve, want animation", h.ctrl.Mode())
	}
}

func TestInterruptibleCommandCancelledByForcedTransition(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var results []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, true, 1, time.Second, func(r bool) {
		results = append(results, r)
	})

	h.ctrl.Notices().PushReaction(ReactionFalling)
	h.ctrl.Update()
	if h.ctrl.Mode() != ModeAnimation {
		t.Fatalf("mode = %s, want animation", h.ctrl.Mode())
	}
	if len(results) != 1 || results[0] {
		t.Errorf("results = %v, want one false after forced transition", results)
	}
}

func TestPlayerSteeringIgnoredDuringCommand(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, false, 1, time.Second, func(bool) {})
	dest := h.agent.dest

	h.source.dir = common.Vec2{X: -1}
	h.source.active = true
	h.ctrl.Update()
	if h.agent.dest != dest {
		t.Errorf("player steering overrode the scripted destination")
	}
}

func TestSetPositionReactivatesNextTick(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	if !h.agent.active {
		t.Fatalf("agent inactive before teleport")
	}

	target := common.Vec2{X: 42, Y: 24}
	h.ctrl.SetPosition(target)
	if h.agent.active {
		t.Fatalf("agent still active in the same call")
	}
	if h.agent.pos != target || h.mover.pos != target {
		t.Errorf("backends not repositioned: agent=%+v mover=%+v", h.agent.pos, h.mover.pos)
	}

	h.ctrl.Update()
	if !h.agent.active {
		t.Errorf("agent not reactivated on the next tick")
	}
}

func TestSetPositionDuringCommandReissuesDestination(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var results []bool
	dest := common.Vec2{X: 500, Y: 0}
	h.ctrl.SendAndReturn(dest, speed.TierRun, false, 1, time.Second, func(r bool) {
		results = append(results, r)
	})
	if h.agent.moves != 1 {
		t.Fatalf("moves = %d after issue, want 1", h.agent.moves)
	}

	h.ctrl.SetPosition(common.Vec2{X: 400, Y: 0})
	if h.agent.active {
		t.Fatalf("agent still active during teleport settle")
	}

	// reactivation re-issues the outstanding destination so the command
	// resumes from the new position instead of idling to its deadline
	h.ctrl.Update()
	if !h.agent.active {
		t.Fatalf("agent not reactivated")
	}
	if h.agent.moves != 2 || h.agent.dest != dest {
		t.Errorf("moves = %d dest = %+v, want the command destination re-issued", h.agent.moves, h.agent.dest)
	}
	if len(results) != 0 {
		t.Fatalf("command resolved by the teleport: %v", results)
	}

	h.agent.pos = dest
	h.ctrl.Update()
	if len(results) != 1 || !results[0] {
		t.Errorf("results = %v, want one true after arrival", results)
	}
}

func TestDisableResolvesPendingCommand(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()

	var results []bool
	h.ctrl.SendAndReturn(common.Vec2{X: 500, Y: 0}, speed.TierRun, false, 1, time.Second, func(r bool) {
		results = append(results, r)
	})

	h.ctrl.Disable()
	if len(results) != 1 || results[0] {
		t.Fatalf("results = %v, want one false on disable", results)
	}
	if !h.ctrl.Interruptible() {
		t.Errorf("interruptible left false after disable")
	}
	if h.ctrl.Mode() != ModeNone {
		t.Errorf("mode = %s, want none", h.ctrl.Mode())
	}

	// a disabled controller ticks inert
	h.ctrl.Update()
	if h.ctrl.CurrentSpeed() != 0 {
		t.Errorf("disabled controller still easing speed")
	}
}

func TestVelocityForwardedToSink(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	h.agent.velocity = 123
	h.ctrl.Update()
	if h.sink.last != 123 {
		t.Errorf("sink velocity = %v, want 123 from the active backend", h.sink.last)
	}

	h.ctrl.Notices().PushGameState(StateMenu)
	h.ctrl.Update()
	if h.sink.last != 0 {
		t.Errorf("sink velocity = %v, want 0 outside gameplay", h.sink.last)
	}
}

func TestFaceDirection(t *testing.T) {
	h := newHarness(t, input.SchemeTouch)
	h.enterPlay()
	h.agent.pos = common.Vec2{X: 10, Y: 10}

	h.ctrl.FaceDirection(common.Vec2{X: 20, Y: 10})
	if len(h.agent.faced) != 1 {
		t.Fatalf("faced = %d calls, want 1", len(h.agent.faced))
	}
	if h.agent.faced[0].X <= 0 || h.agent.faced[0].Y != 0 {
		t.Errorf("face direction = %+v, want +X", h.agent.faced[0])
	}

	// facing the current position is a no-op
	h.ctrl.FaceDirection(common.Vec2{X: 10, Y: 10})
	if len(h.agent.faced) != 1 {
		t.Errorf("degenerate face direction issued a command")
	}
}
