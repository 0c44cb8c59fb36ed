//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run with `go run` or installed via `go install` and are
// not tracked in go.mod since they are development tools, not runtime
// dependencies.
package tools

// Development tools:
//
// Air - Live reload while editing templates and handlers (pair with DEV=true)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run:     air --build.cmd "go build -o ./tmp/dashboard ./cmd/dashboard" --build.bin ./tmp/dashboard
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates the port mocks in internal/mocks
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (matches go.uber.org/mock in go.mod)
