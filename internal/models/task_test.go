package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusNew, true},
		{StatusInProgress, true},
		{StatusDone, true},
		{"", false},
		{"bogus", false},
		{"in_progress", false},
		{"NEW", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Valid())
		})
	}
}

func TestStatusTitle(t *testing.T) {
	assert.Equal(t, "New Work", StatusNew.Title())
	assert.Equal(t, "In Progress", StatusInProgress.Title())
	assert.Equal(t, "Done", StatusDone.Title())
	assert.Empty(t, Status("bogus").Title())
}

func TestTaskPatchEmpty(t *testing.T) {
	title := "x"
	version := int64(3)

	assert.True(t, TaskPatch{}.Empty())
	assert.True(t, TaskPatch{Version: &version}.Empty())
	assert.False(t, TaskPatch{Title: &title}.Empty())
}
