// Package script runs tengo command scripts that drive scripted movement:
// cutscene-style move orders issued against the locomotion controller.
package script

import (
	"fmt"
	"log"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/mawasi/wayfarer/common"
	"github.com/mawasi/wayfarer/locomotion"
	"github.com/mawasi/wayfarer/speed"
)

// tickDispatch invokes the script's tick entry point with the engine api
// and the persistent state map.
const tickDispatch = `
tick(__engine, __state)
`

// Runtime compiles a command script once and pumps it every simulation
// tick. The script must define tick := func(eng, state) { ... }.
type Runtime struct {
	compiled *tengo.Compiled
	state    *tengo.Map

	ctrl *locomotion.Controller

	// outstanding move_to issued by the script
	pending bool
	reached bool
	wait    int
}

// New compiles src against the engine api bound to ctrl.
func New(src []byte, ctrl *locomotion.Controller) (*Runtime, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("script: nil controller")
	}
	rt := &Runtime{
		ctrl:  ctrl,
		state: &tengo.Map{Value: map[string]tengo.Object{}},
	}

	sc := tengo.NewScript(append(append([]byte{}, src...), []byte(tickDispatch)...))
	sc.SetImports(stdlib.GetModuleMap("math", "fmt", "rand"))
	if err := sc.Add("__engine", rt.engine()); err != nil {
		return nil, fmt.Errorf("script: add engine: %w", err)
	}
	if err := sc.Add("__state", rt.state); err != nil {
		return nil, fmt.Errorf("script: add state: %w", err)
	}

	compiled, err := sc.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	rt.compiled = compiled
	return rt, nil
}

// Pump runs one script tick. Script errors are logged, never fatal.
func (rt *Runtime) Pump() {
	if rt.wait > 0 {
		rt.wait--
		return
	}
	if err := rt.compiled.Run(); err != nil {
		log.Printf("script: tick error: %v", err)
	}
}

// Busy reports whether a script-issued command is still outstanding.
func (rt *Runtime) Busy() bool {
	return rt.pending
}

func (rt *Runtime) engine() *tengo.ImmutableMap {
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"move_to":  &tengo.UserFunction{Name: "move_to", Value: rt.moveTo},
		"teleport": &tengo.UserFunction{Name: "teleport", Value: rt.teleport},
		"face":     &tengo.UserFunction{Name: "face", Value: rt.face},
		"wait":     &tengo.UserFunction{Name: "wait", Value: rt.waitTicks},
		"busy":     &tengo.UserFunction{Name: "busy", Value: rt.busy},
		"reached":  &tengo.UserFunction{Name: "reached", Value: rt.lastReached},
		"mode":     &tengo.UserFunction{Name: "mode", Value: rt.mode},
	}}
}

// move_to(x, y, tier, stop_distance, timeout_secs, interruptible) -> accepted
func (rt *Runtime) moveTo(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 6 {
		return nil, tengo.ErrWrongNumArguments
	}
	x, ok := tengo.ToFloat64(args[0])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "x", Expected: "float", Found: args[0].TypeName()}
	}
	y, ok := tengo.ToFloat64(args[1])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "y", Expected: "float", Found: args[1].TypeName()}
	}
	tier, ok := tengo.ToString(args[2])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "tier", Expected: "string", Found: args[2].TypeName()}
	}
	stop, ok := tengo.ToFloat64(args[3])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "stop_distance", Expected: "float", Found: args[3].TypeName()}
	}
	timeout, ok := tengo.ToFloat64(args[4])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "timeout_secs", Expected: "float", Found: args[4].TypeName()}
	}
	interruptible, ok := tengo.ToBool(args[5])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "interruptible", Expected: "bool", Found: args[5].TypeName()}
	}

	accepted := rt.ctrl.SendAndReturn(
		common.Vec2{X: x, Y: y},
		speed.Tier(tier),
		interruptible,
		stop,
		time.Duration(timeout*float64(time.Second)),
		func(reached bool) {
			rt.pending = false
			rt.reached = reached
		},
	)
	if accepted {
		rt.pending = true
		return tengo.TrueValue, nil
	}
	return tengo.FalseValue, nil
}

func (rt *Runtime) teleport(args ...tengo.Object) (tengo.Object, error) {
	x, y, err := twoFloats(args)
	if err != nil {
		return nil, err
	}
	rt.ctrl.SetPosition(common.Vec2{X: x, Y: y})
	return tengo.UndefinedValue, nil
}

func (rt *Runtime) face(args ...tengo.Object) (tengo.Object, error) {
	x, y, err := twoFloats(args)
	if err != nil {
		return nil, err
	}
	rt.ctrl.FaceDirection(common.Vec2{X: x, Y: y})
	return tengo.UndefinedValue, nil
}

func (rt *Runtime) waitTicks(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	n, ok := tengo.ToInt(args[0])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "ticks", Expected: "int", Found: args[0].TypeName()}
	}
	if n > 0 {
		rt.wait = n
	}
	return tengo.UndefinedValue, nil
}

func (rt *Runtime) busy(args ...tengo.Object) (tengo.Object, error) {
	if rt.pending {
		return tengo.TrueValue, nil
	}
	return tengo.FalseValue, nil
}

func (rt *Runtime) lastReached(args ...tengo.Object) (tengo.Object, error) {
	if rt.reached {
		return tengo.TrueValue, nil
	}
	return tengo.FalseValue, nil
}

func (rt *Runtime) mode(args ...tengo.Object) (tengo.Object, error) {
	return &tengo.String{Value: rt.ctrl.Mode().String()}, nil
}

func twoFloats(args []tengo.Object) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, tengo.ErrWrongNumArguments
	}
	x, ok := tengo.ToFloat64(args[0])
	if !ok {
		return 0, 0, tengo.ErrInvalidArgumentType{Name: "x", Expected: "float", Found: args[0].TypeName()}
	}
	y, ok := tengo.ToFloat64(args[1])
	if !ok {
		return 0, 0, tengo.ErrInvalidArgumentType{Name: "y", Expected: "float", Found: args[1].TypeName()}
	}
	return x, y, nil
}
