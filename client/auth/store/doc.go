// Package store defines the credential store consulted and updated around token refreshes.
//
// It ships with an in-memory implementation for single-process use and tests, and a
// file store persisting credentials as JSON on any URL supported by viant/afs, which
// lets several processes share one credential.
package store
