// Package models defines the domain values of GophGuard: the parent control
// policy, the reward allow-list and the permission kinds negotiated with the
// device.
package models
