// Package hsm implements a hierarchical state machine engine.
//
// A machine is described once, at start-up, as a Graph: a tree (or
// forest) of named states, each with optional entry and exit actions, an
// optional default transition to one of its descendants, and an ordered
// list of event transitions. Graphs are immutable and may be shared by
// any number of Engine instances.
//
//	b := hsm.NewGraphBuilder[*Door, Event]()
//	b.Name("Exists").Initially(hsm.InitialTransition[*Door]("Closed"))
//	b.Name("Closed").Parent("Exists").Initially(hsm.InitialTransition[*Door]("Unlocked"))
//	b.Name("Locked").Parent("Closed").
//		Always(hsm.EventTransition[*Door](Unlock).Goto("Unlocked"))
//	b.Name("Unlocked").Parent("Closed").
//		Always(hsm.EventTransition[*Door](Lock).Goto("Locked")).
//		Always(hsm.EventTransition[*Door](Open).Goto("Opened"))
//	b.Name("Opened").Parent("Exists").
//		Always(hsm.EventTransition[*Door](Close).Goto("Closed"))
//	graph := b.MustBuild()
//
// An Engine holds the current state. Initialize starts on the top state
// without entering it and follows its default transitions. HandleEvent
// looks for a matching transition on the current state and then on each
// ancestor, exits every state below the least common ancestor of source
// and target, runs the transition action, enters every state down to the
// target and, if anything was entered, follows default transitions. A
// target that is the current state or one of its ancestors is itself the
// least common ancestor: states below it are exited and none entered.
// A transition without a target is internal: only its action runs.
//
// Engines are synchronous and not safe for concurrent use; see package
// dispatch for a serialising queue.
package hsm
