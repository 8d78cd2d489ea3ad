// Package manifest implements persistence for plugin manifests.
//
// The FileRepository validates manifests against the embedded Spin plugin
// manifest JSON schema on both load and save, and replaces files atomically.
package manifest
