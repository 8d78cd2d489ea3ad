// Package common holds helpers shared by several services.
//
// It runs external commands to completion with inherited standard streams and
// guards a working directory against concurrent packaging runs with a marker
// file whose owner is checked through the process table.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
