// Package mail delivers plain email messages.
//
// SMTP is the production transport. Log writes messages to the structured
// logger instead, for local runs where no mail server is available.
package mail
