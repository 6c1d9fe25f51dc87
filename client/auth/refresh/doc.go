// Package refresh implements single-flight credential renewal for HTTP clients.
//
// A Coordinator owns the refresh state of one client installation: whether a
// refresh is in progress and the queue of requests waiting for its outcome.
// The first request that fails with an authorization status starts the refresh;
// requests failing while it runs join the queue. When the refresh settles every
// queued request is either stamped with the renewed credential and handed back
// for replay, or rejected with the refresh failure.
//
// The renewal itself, credential persistence and validity checks are supplied
// by the caller through Config.
package refresh
