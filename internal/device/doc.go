// Package device provides terminal stand-ins for the platform authorities
// used by the privacy package: a biometric authenticator that is never
// available, and a notification authority that asks on the console.
package device
