package catalog

// Package catalog contains hand-written test doubles for the catalog port.
// They are goroutine safe and suit tests that run fetches in the background.

import (
	"context"
	"sync"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/ports"
)

var _ ports.CatalogSource = (*StaticSource)(nil)

// StaticSource serves fixed credential and system rows.
//
// When a gate is installed with Hold, FetchSystems blocks until Release is
// called (or ctx ends), which lets tests interleave logout or a second fetch
// with an in-flight one.
type StaticSource struct {
	mu         sync.Mutex
	users      []domainauth.UserRecord
	systems    []model.SystemRecord
	usersErr   error
	systemsErr error
	gate       chan struct{}

	credentialCalls int
	systemCalls     int
}

// NewStaticSource creates a StaticSource with the given rows.
func NewStaticSource(users []domainauth.UserRecord, systems []model.SystemRecord) *StaticSource {
	return &StaticSource{users: users, systems: systems}
}

// SetSystems replaces the system rows served by later fetches.
func (s *StaticSource) SetSystems(systems []model.SystemRecord) {
	s.mu.Lock()
	s.systems = systems
	s.mu.Unlock()
}

// FailCredentials makes FetchCredentials return err (nil clears it).
func (s *StaticSource) FailCredentials(err error) {
	s.mu.Lock()
	s.usersErr = err
	s.mu.Unlock()
}

// FailSystems makes FetchSystems return err (nil clears it).
func (s *StaticSource) FailSystems(err error) {
	s.mu.Lock()
	s.systemsErr = err
	s.mu.Unlock()
}

// Hold makes subsequent FetchSystems calls block until Release.
func (s *StaticSource) Hold() {
	s.mu.Lock()
	s.gate = make(chan struct{})
	s.mu.Unlock()
}

// Release unblocks every FetchSystems call waiting on the current gate.
func (s *StaticSource) Release() {
	s.mu.Lock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
	s.mu.Unlock()
}

// FetchCredentials implements ports.CatalogSource.
func (s *StaticSource) FetchCredentials(_ context.Context) ([]domainauth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentialCalls++
	if s.usersErr != nil {
		return []domainauth.UserRecord{}, s.usersErr
	}
	return append([]domainauth.UserRecord(nil), s.users...), nil
}

// FetchSystems implements ports.CatalogSource.
func (s *StaticSource) FetchSystems(ctx context.Context) ([]model.SystemRecord, error) {
	s.mu.Lock()
	s.systemCalls++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return []model.SystemRecord{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.systemsErr != nil {
		return []model.SystemRecord{}, s.systemsErr
	}
	return append([]model.SystemRecord(nil), s.systems...), nil
}

// CredentialCalls returns how many times FetchCredentials ran.
func (s *StaticSource) CredentialCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentialCalls
}

// SystemCalls returns how many times FetchSystems ran.
func (s *StaticSource) SystemCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemCalls
}
