//go:build tools

// Package tools lists the development tools used with this repository. They are installed
// with `go install` and are not part of go.mod.
package tools

// Air reloads the dashboard while editing Go code. Templates and static assets are read
// from disk when DEV=true.
//   Install: go install github.com/air-verse/air@v1.63.0
//
// mockgen regenerates internal/mocks (see internal/mocks/generate.go).
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
