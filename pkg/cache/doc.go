// Package cache provides a generic thread-safe LRU cache.
//
// The realtime core uses it to keep hot delivery-preference records in
// process memory in front of the pluggable preference store backend.
package cache
