// Package rate is a Redis fixed-window request counter. The HTTP layer uses it
// instead of its in-process limiter when several replicas share one Redis.
package rate
