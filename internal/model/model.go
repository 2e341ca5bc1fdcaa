// Package model contains the data structures exchanged with the downstream
// services (external.go) and the per-request view models built from them
// (view.go). No business logic here.
package model
