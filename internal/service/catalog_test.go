package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/botivate/systems-dashboard/internal/domain/model"
	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/mocks"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/testutil"
)

func rawSystem(name, status string) model.SystemRecord {
	return model.SystemRecord{Name: name, RawStatus: status}
}

func names(recs []model.SystemRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestCatalogProjector_Project_AdminPartition(t *testing.T) {
	p := NewCatalogProjector(CatalogProjectorOptions{})
	admin := testutil.NewUser("root").Admin().Build()

	raw := []model.SystemRecord{
		rawSystem("Payroll", "Completed"),
		rawSystem("Inventory", " running "),
		rawSystem("Placeholder", ""),
		rawSystem("Leads", "PENDING"),
		rawSystem("Archive", "On hold"),
		rawSystem("Billing", "complete"),
	}

	got := p.Project(raw, admin)

	assert.Equal(t, []string{"Payroll", "Billing"}, names(got.Complete))
	assert.Equal(t, []string{"Inventory", "Leads"}, names(got.Running))

	// Ordinals are row positions in the fetch, unknown rows included.
	ordinals := map[string]int{}
	for _, r := range append(got.Complete, got.Running...) {
		ordinals[r.Name] = r.Ordinal
	}
	want := map[string]int{"Payroll": 1, "Inventory": 2, "Leads": 4, "Billing": 6}
	if diff := cmp.Diff(want, ordinals); diff != "" {
		t.Errorf("ordinals mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogProjector_Project_UserFilter(t *testing.T) {
	p := NewCatalogProjector(CatalogProjectorOptions{})

	tests := []struct {
		name     string
		grant    string
		complete []string
		running  []string
	}{
		{name: "empty grant sees nothing", grant: "", complete: []string{}, running: []string{}},
		{name: "token inside name", grant: "pay", complete: []string{"Payroll"}, running: []string{}},
		{name: "name inside token", grant: "Inventory Management", complete: []string{}, running: []string{"Inventory"}},
		{name: "several tokens, mixed case", grant: " LEADS , payroll,", complete: []string{"Payroll"}, running: []string{"Leads"}},
	}

	raw := []model.SystemRecord{
		rawSystem("Payroll", "Complete"),
		rawSystem("Inventory", "Running"),
		rawSystem("Leads", "Pending"),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testutil.NewUser("u1").WithGrant(tt.grant).Build()
			got := p.Project(raw, user)
			assert.Equal(t, tt.complete, names(got.Complete))
			assert.Equal(t, tt.running, names(got.Running))
		})
	}
}

func TestCatalogProjector_Project_KeepsParsedStatusWithoutRaw(t *testing.T) {
	p := NewCatalogProjector(CatalogProjectorOptions{})
	admin := testutil.NewUser("root").Admin().Build()

	got := p.Project([]model.SystemRecord{{Name: "Pre-parsed", Status: model.StatusRunning}}, admin)

	require.Len(t, got.Running, 1)
	assert.Equal(t, 1, got.Running[0].Ordinal)
	assert.Empty(t, got.Complete)
}

func TestCatalogProjector_Project_EmptyInput(t *testing.T) {
	p := NewCatalogProjector(CatalogProjectorOptions{})
	got := p.Project(nil, testutil.NewUser("root").Admin().Build())

	assert.NotNil(t, got.Complete)
	assert.NotNil(t, got.Running)
	assert.Zero(t, got.Len())
}

func TestCatalogProjector_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockCatalogSource(ctrl)
	rec := &statsd.Recorder{}

	source.EXPECT().FetchSystems(gomock.Any()).Return([]model.SystemRecord{
		rawSystem("Payroll", "Complete"),
		rawSystem("Inventory", "Running"),
	}, nil)

	p := NewCatalogProjector(CatalogProjectorOptions{Source: source, Metrics: rec})
	got, err := p.Load(context.Background(), testutil.NewUser("u1").WithGrant("inventory").Build())

	require.NoError(t, err)
	assert.Empty(t, got.Complete)
	assert.Equal(t, []string{"Inventory"}, names(got.Running))

	fetches := rec.Named(metrics.CatalogFetch)
	require.Len(t, fetches, 1)
	assert.Equal(t, metrics.OutcomeSuccess, fetches[0].Tags["outcome"])
}

func TestCatalogProjector_Load_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockCatalogSource(ctrl)
	rec := &statsd.Recorder{}

	fetchErr := errors.Join(apperrors.ErrRemoteFetch, errors.New("status 502"))
	source.EXPECT().FetchSystems(gomock.Any()).Return([]model.SystemRecord{}, fetchErr)

	p := NewCatalogProjector(CatalogProjectorOptions{Source: source, Metrics: rec})
	got, err := p.Load(context.Background(), testutil.NewUser("root").Admin().Build())

	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteFetch(err))
	assert.Zero(t, got.Len())
	assert.NotNil(t, got.Complete)
	assert.NotNil(t, got.Running)

	fetches := rec.Named(metrics.CatalogFetch)
	require.Len(t, fetches, 1)
	assert.Equal(t, metrics.OutcomeError, fetches[0].Tags["outcome"])
}
