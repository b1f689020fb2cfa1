package speed

// Category identifies a stat category in the modifier engine.
type Category string

// CategoryMovement is the only category locomotion listens to.
const CategoryMovement Category = "movement"

// ModifierSource exposes the externally-aggregated stat multiplier for a
// category. Implementations own all mutation; consumers only read.
type ModifierSource interface {
	Multiplier(cat Category) float64
}

// Signal is a polled change-notification queue. Producers push the category
// that changed; the consumer drains once per tick. Keeping notification as a
// per-tick poll avoids re-entrancy during mutation.
type Signal struct {
	items []Category
}

func (s *Signal) Push(cat Category) {
	if s == nil {
		return
	}
	s.items = append(s.items, cat)
}

// Drain returns all pending categories and clears the queue.
func (s *Signal) Drain() []Category {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := s.items
	s.items = nil
	return out
}

// ModKind defines how a stat modifier is applied.
type ModKind int8

const (
	ModAdd ModKind = iota // additive bonus on the multiplier
	ModMul                // multiplicative bonus
)

// Modifier is a single named stat modification. Multiple modifiers can
// stack on the same category.
type Modifier struct {
	Name  string
	Kind  ModKind
	Value float64
}

// Book is a small modifier-aggregation collaborator: per-category stacks of
// additive and multiplicative modifiers over a base multiplier of 1.0. The
// demo and tests use it as the ModifierSource; the controller only sees the
// interface.
type Book struct {
	mods    map[Category][]Modifier
	changes Signal
}

func NewBook() *Book {
	return &Book{mods: make(map[Category][]Modifier)}
}

// Changes returns the polled change signal for this book.
func (b *Book) Changes() *Signal {
	return &b.changes
}

// Apply adds a modifier to a category, replacing any modifier of the same
// name, and signals the change.
func (b *Book) Apply(cat Category, m Modifier) {
	stack := b.mods[cat]
	for i := range stack {
		if stack[i].Name == m.Name {
			stack[i] = m
			b.changes.Push(cat)
			return
		}
	}
	b.mods[cat] = append(stack, m)
	b.changes.Push(cat)
}

// Remove drops a named modifier from a category. Unknown names are ignored.
func (b *Book) Remove(cat Category, name string) {
	stack := b.mods[cat]
	for i := range stack {
		if stack[i].Name == name {
			b.mods[cat] = append(stack[:i], stack[i+1:]...)
			b.changes.Push(cat)
			return
		}
	}
}

// Multiplier folds the category's stack over a base of 1.0: additive
// modifiers sum first, multiplicative ones scale the result. Negative
// results clamp to zero; the speed table applies its own floor on top.
func (b *Book) Multiplier(cat Category) float64 {
	m := 1.0
	for _, mod := range b.mods[cat] {
		if mod.Kind == ModAdd {
			m += mod.Value
		}
	}
	for _, mod := range b.mods[cat] {
		if mod.Kind == ModMul {
			m *= mod.Value
		}
	}
	if m < 0 {
		return 0
	}
	return m
}
