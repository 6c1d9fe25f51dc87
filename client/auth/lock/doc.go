// Package lock provides named mutual exclusion used to serialize credential refreshes
// across independent refresh coordinators.
//
// Three implementations are available:
//   - Nop runs the critical section immediately; coordination stays local to one
//     coordinator.
//   - Local serializes coordinators living in the same process.
//   - File serializes processes sharing a directory, using an exclusively created
//     lock file per name.
package lock
