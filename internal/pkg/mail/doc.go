// Package mail abstracts outbound email behind the Mail interface so
// use cases stay independent of the delivery mechanism. The SMTP
// implementation in this package is the only concrete sender today.
package mail
