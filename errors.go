package hsm

import "errors"

// Construction errors. Build and New wrap these with the offending state.
var (
	ErrUnknownState         = errors.New("unknown state")
	ErrDuplicateState       = errors.New("state declared more than once")
	ErrParentCycle          = errors.New("parent edges form a cycle")
	ErrEmptyInitial         = errors.New("initial transition has no target")
	ErrInitialNotDescendant = errors.New("initial target is not a descendant")
	ErrTargetOutsideTop     = errors.New("transition target outside the engine's top state")
)

// Runtime errors.
var (
	ErrAlreadyInitialized = errors.New("engine already initialized")
)
