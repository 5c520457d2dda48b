// Package hash provides helpers for hashing and verifying short secrets.
//
// Verification codes are never stored in clear text: the session keeps only the
// keyed digest produced here, and a submitted code is checked by recomputing the
// digest and comparing in constant time.
package hash
