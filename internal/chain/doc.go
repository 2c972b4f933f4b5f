// Package chain runs ordered action chains on top of the coordinator.
//
// A chain is a list of steps bound to an owner id. Step i runs when step
// i-1 reports completion: each step's handler receives a done continuation
// that triggers group owner+key, and the next step is attached to that
// group with the reset policy so the chain can run again.
//
// Handlers are looked up by step type in a Manager's registry. A step whose
// type has no handler is logged and skipped, which also ends that run of the
// chain.
package chain
