package locomotion

// GameState is the coarse phase reported by the game-state source.
type GameState int

const (
	StateMenu GameState = iota
	StatePlay
)

// Reaction is an externally-triggered reaction state (knockback, falling)
// that takes movement away from the player while it lasts.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionFalling
	ReactionStunned
)

// NoticeKind identifies notice payloads.
type NoticeKind int

const (
	// NoticeGameState carries a game phase change.
	NoticeGameState NoticeKind = iota
	// NoticeReaction carries a reaction state change.
	NoticeReaction
	// NoticeRootMotion toggles animation root-motion takeover.
	NoticeRootMotion
)

// Notice is a single external trigger for the mode machine.
type Notice struct {
	Kind     NoticeKind
	State    GameState // NoticeGameState
	Reaction Reaction  // NoticeReaction
	On       bool      // NoticeRootMotion
}

// NoticeQueue is a simple FIFO the controller drains once per tick. Sources
// push from the same goroutine; polling keeps transition ordering
// deterministic and avoids re-entrancy during a notification.
type NoticeQueue struct {
	items []Notice
}

// Push adds a notice.
func (q *NoticeQueue) Push(n Notice) {
	if q == nil {
		return
	}
	q.items = append(q.items, n)
}

// PushGameState queues a game phase change.
func (q *NoticeQueue) PushGameState(s GameState) {
	q.Push(Notice{Kind: NoticeGameState, State: s})
}

// PushReaction queues a reaction change.
func (q *NoticeQueue) PushReaction(r Reaction) {
	q.Push(Notice{Kind: NoticeReaction, Reaction: r})
}

// PushRootMotion queues a root-motion takeover toggle.
func (q *NoticeQueue) PushRootMotion(on bool) {
	q.Push(Notice{Kind: NoticeRootMotion, On: on})
}

// Drain returns all pending notices and clears the queue.
func (q *NoticeQueue) Drain() []Notice {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}
