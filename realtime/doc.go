// Package realtime provides a tick-based deterministic front end for an
// engine.
//
// Where dispatch.Queue hands each event to the engine as soon as the
// queue goroutine reaches it, a Runtime collects events and dispatches
// them in batches at fixed tick boundaries:
//   - Events are batched and processed once per tick
//   - Within a tick, higher priority events go first and equal
//     priorities keep submission order
//   - Ticks can also be driven by hand with Tick, which makes runs
//     reproducible in tests and replays
//
// # Example Usage
//
//	rt := realtime.New[door.Event](d.Engine(), realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	rt.Send(door.Lock)
//
// # Use Cases
//
//   - Game loops and simulations with a fixed time step
//   - Control loops that must react once per period
//   - Testing and debugging (reproducible event order)
package realtime
