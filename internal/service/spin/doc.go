// Package spin drives the Spin plugin manager.
//
// The PluginManager interface is injected into the packager so the install
// step never reads the process environment on its own; CLI implements it by
// spawning the spin binary.
package spin
