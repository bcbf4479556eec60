// Package dynamo provides the shared primitives of the closed-loop analysis
// pipeline.
//
// The package defines the types and errors that flow between the pipeline
// stages:
//
//   - [State]: state vector of a linear realization
//   - [Result]: sampled step response (time grid plus output trajectory)
//   - [GridError]: a rejected time grid, wrapping [ErrInvalidGrid]
//
// # Pipeline
//
//	pid, _ := controllers.MakePID(5, 0.5, 0.1)
//	loop, _ := controllers.ComposeClosedLoop(pid, plant)
//	res, _ := sim.StepResponse(loop, grid)
//	m, _ := metrics.Compute(res.Times, res.Output, 1.0)
//
// # Thread Safety
//
// Every value here is immutable once built. Independent pipelines may run in
// parallel without coordination; see the sweep package.
package dynamo
