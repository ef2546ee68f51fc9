// Package store holds recent analysis runs in memory. Each run gets a UUID
// on insert; runs older than the configured TTL are hidden from reads and
// removed by the eviction loop, and the number of retained runs is capped.
package store
