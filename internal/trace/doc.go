// Package trace provides structured event tracing for the Viper runtime.
//
// Tracing records heap traffic, context binding and traps so that
// refcount bugs and handoff problems can be diagnosed after the fact.
//
// # Usage
//
// Enable tracing from the host CLI:
//
//	viperrt selftest --trace=- --trace-level=object
//
// # Architecture
//
//   - nopTracer: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to an io.Writer (file/stderr)
//   - RingTracer: circular buffer, dumped after a trap
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: traps only
//   - LevelContext: host phases and context bind/unbind/handoff
//   - LevelObject: finalizers and object lifecycle
//   - LevelHeap: every allocation and free
//
// Traps (KindTrap) are emitted at every level except off.
package trace
