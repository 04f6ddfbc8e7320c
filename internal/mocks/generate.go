// Package mocks provides gomock implementations of the core ports for tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mutator := mocks.NewMockMutator(ctrl)
//	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "42", "completed").Return(nil)
package mocks

// Mutator: UpdateStatus, SetRead, Delete, Create
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=mutator_mock.go github.com/darahconnect/darah-dashboard/internal/core Mutator

// AuditRepository: Record, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_repository_mock.go github.com/darahconnect/darah-dashboard/internal/core AuditRepository

// CacheRepository: Set, Get, Delete, Exists, SetTTL, SetIfNotExists, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/darahconnect/darah-dashboard/internal/core CacheRepository

// SessionRepository: Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_repository_mock.go github.com/darahconnect/darah-dashboard/internal/core SessionRepository

// CacheInvalidator: Invalidate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_invalidator_mock.go github.com/darahconnect/darah-dashboard/internal/core CacheInvalidator
