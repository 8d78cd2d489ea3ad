// Package plugin contains the core domain types of a Spin plugin bundle.
//
// It defines the Manifest consumed by the Spin plugin manager, its per-platform
// Package entries, and the closed OS/Arch tag sets together with the single
// alias table used to normalize free-form platform names.
package plugin
