// Package poller provides the probing core of webping.
//
// This package is internal to webping and handles the periodic probing of
// HTTP(S) targets. Every target of a cycle is probed on its own goroutine;
// the scheduler waits for the cycle to finish or for the cycle deadline,
// then sleeps until the next interval.
//
// The main components are:
//
//   - [Client]: shared HTTP client with a client-level timeout and a
//     certificate verdict hook
//   - [CycleRunner]: fans a [Batch] out into concurrent probes and collects
//     their [Outcome] values within the cycle deadline
//   - [Gate]: pause/resume primitive blocking the start of the next cycle
//   - [Scheduler]: the cadence loop and its stopped/running/paused state machine
//
// Users of the webping library should not need to interact with this
// package directly. Configuration is done through the main webping package.
package poller
