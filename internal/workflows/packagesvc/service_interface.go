// File: internal/workflows/packagesvc/service_interface.go
// Brief: Entry point for the RPM packaging workflow.

// Package packagesvc sequences compile, asset expansion, archive creation,
// spec rendering, rpmbuild invocation, artifact collection and verification.
package packagesvc

import "context"

// Service exposes the packaging workflow entrypoint.
type Service interface {
	Run(ctx context.Context, opts Options) (*Result, error)
}
