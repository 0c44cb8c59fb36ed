package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Complete", StatusComplete},
		{"Completed", StatusComplete},
		{" completed ", StatusComplete},
		{"Running", StatusRunning},
		{"Pending", StatusRunning},
		{"PENDING", StatusRunning},
		{"", StatusUnknown},
		{"On Hold", StatusUnknown},
		{"Completes", StatusUnknown},
		{"TBD", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestCatalog_AddIsDisjoint(t *testing.T) {
	raws := []string{"Complete", "Completed", "Running", "Pending", "", "Paused", "complete"}

	c := EmptyCatalog()
	for i, raw := range raws {
		c.Add(SystemRecord{Ordinal: i + 1, Name: raw, RawStatus: raw, Status: ParseStatus(raw)})
	}

	seen := map[int]int{}
	for _, r := range c.Complete {
		assert.Equal(t, StatusComplete, r.Status)
		seen[r.Ordinal]++
	}
	for _, r := range c.Running {
		assert.Equal(t, StatusRunning, r.Status)
		seen[r.Ordinal]++
	}
	for ord, n := range seen {
		assert.Equal(t, 1, n, "ordinal %d landed in more than one bucket", ord)
	}
	assert.Len(t, c.Complete, 3)
	assert.Len(t, c.Running, 2)
	assert.Equal(t, 5, c.Len())
}

func TestCatalog_Bucket(t *testing.T) {
	c := EmptyCatalog()
	c.Add(SystemRecord{Name: "a", Status: StatusComplete})
	c.Add(SystemRecord{Name: "b", Status: StatusRunning})

	assert.Equal(t, "a", c.Bucket(StatusComplete)[0].Name)
	assert.Equal(t, "b", c.Bucket(StatusRunning)[0].Name)
	assert.Nil(t, c.Bucket(StatusUnknown))
}
