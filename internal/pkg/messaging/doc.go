// Package messaging publishes domain events to a broker without tying callers
// to a specific one. NATS and Kafka are supported; the noop driver discards
// events for single-process deployments and tests.
package messaging
