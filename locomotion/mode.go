package locomotion

// Mode identifies which locomotion backend owns the character. Exactly one
// is active at a time.
type Mode int

const (
	// ModeNone is the resting state outside gameplay.
	ModeNone Mode = iota
	// ModeAgent hands movement to the pathfinding agent backend.
	ModeAgent
	// ModeController hands movement to the kinematic-controller backend.
	ModeController
	// ModeAnimation hands movement to animation root motion; input is inert.
	ModeAnimation
)

func (m Mode) String() string {
	switch m {
	case ModeAgent:
		return "agent"
	case ModeController:
		return "controller"
	case ModeAnimation:
		return "animation"
	default:
		return "none"
	}
}

// Permission is the degree to which current input may affect movement. It is
// derived from the mode and contextual state every time it is needed, never
// stored.
type Permission int

const (
	// PermissionNone ignores all movement input.
	PermissionNone Permission = iota
	// PermissionRotationOnly lets input set facing but not travel.
	PermissionRotationOnly
	// PermissionFull lets input drive both travel and facing.
	PermissionFull
)

func (p Permission) String() string {
	switch p {
	case PermissionFull:
		return "full"
	case PermissionRotationOnly:
		return "rotation"
	default:
		return "none"
	}
}
