// Package jwt issues and verifies verification tickets.
//
// A ticket is a short-lived HS512 token proving that an email address passed
// code verification for a given purpose. The identity provider exchanges it
// for account activation or a password reset; this service never creates
// sessions itself.
package jwt
