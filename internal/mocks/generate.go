// Package mocks provides gomock implementations of the dashboard ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	src := mocks.NewMockCatalogSource(ctrl)
//	src.EXPECT().FetchSystems(gomock.Any()).Return(rows, nil)
package mocks

// Generate mock for CatalogSource interface from internal/ports package.
// This creates MockCatalogSource with methods: FetchCredentials, FetchSystems
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=catalog_source_mock.go github.com/botivate/systems-dashboard/internal/ports CatalogSource

// Generate mock for TabStorage interface from internal/ports package.
// This creates MockTabStorage with methods: Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=tab_storage_mock.go github.com/botivate/systems-dashboard/internal/ports TabStorage
