// Package version reports the build of the flowgraph binary.
//
// Release builds set the variables with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/flowgraph/version.Version=1.0.0"
//
// Other builds fall back to the module version and VCS stamps recorded by
// the Go toolchain.
package version
