// Package otp generates short one-time codes for out-of-band verification.
//
// Codes are drawn uniformly from a fixed alphabet using crypto/rand. A
// generator keeps no state, so two calls never depend on each other and
// collisions across different recipients are acceptable.
package otp
