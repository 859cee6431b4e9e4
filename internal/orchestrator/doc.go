// Package orchestrator runs supervisor workflows across the assistant
// population.
//
// A supervisor directive is parsed into one of the supervisor actions and
// then handled in steps:
//   - Filter: keep employees whose current local shift matches the shift of
//     the target time and whose agent exists
//   - Probe: ask each remaining assistant whether it is free, in parallel
//     under a fixed limit, keeping candidate order
//   - Select: take the first free candidate and delegate a CreateEvent to it
//
// Example usage:
//
//	scope := registry.Scope()
//	sup, err := orchestrator.NewSupervisor(scope, "boss", parser, orchestrator.Options{})
//	reply := sup.Chat(ctx, "Assign the deploy review to someone tomorrow at 14:00")
package orchestrator
