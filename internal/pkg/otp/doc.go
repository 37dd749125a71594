// Package otp generates and validates the short numeric codes mailed to
// users to prove ownership of an email address.
//
// Codes are fixed-length decimal strings drawn from a cryptographically
// secure random source; they carry no structure and must be matched
// against a stored record to mean anything.
package otp
