// Package trace records begin/end spans and instant events for the quill
// pipeline so slow or stuck compilations can be diagnosed.
//
// Tracing is enabled from the command line:
//
//	quill compile --trace=- --trace-level=detail bell.qfir
//
// Implementations: Nop (disabled), StreamTracer (immediate write),
// RingTracer (last N events, written on Close), MultiTracer (fan-out).
//
// Scopes from coarse to fine: ScopeDriver (CLI command), ScopePass (pipeline
// stage of one file), ScopeCallable (an inlined callable during partial
// evaluation), ScopeNode (a branch fork or an unrolled loop).
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "evaluate", parentID)
//	defer span.End("")
package trace
