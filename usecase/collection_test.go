package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtream/lectures-client/domain"
)

func TestCollectionModel_Empty(t *testing.T) {
	m := NewCollectionModel()

	_, state := m.Selected()
	assert.Equal(t, SelectionNone, state)
	assert.Empty(t, m.Jobs())
}

func TestCollectionModel_SelectionFollowsSnapshotReplacement(t *testing.T) {
	m := NewCollectionModel()
	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m.ApplySnapshot([]domain.Job{{ID: "v1", Title: "Intro", Status: domain.JobStatusUploaded, CreatedAt: t1}})
	m.Select("v1")

	// The backend pipeline advanced the job; a fresh snapshot replaces
	// every object wholesale.
	m.ApplySnapshot([]domain.Job{{
		ID: "v1", Title: "Intro", Status: domain.JobStatusCompleted,
		Summary: "Key points...", CreatedAt: t1,
	}})

	selected, state := m.Selected()
	require.Equal(t, SelectionActive, state)
	assert.Equal(t, domain.JobStatusCompleted, selected.Status)
	assert.Equal(t, "Key points...", selected.Summary)
}

func TestCollectionModel_NoFieldMixingAcrossSnapshots(t *testing.T) {
	m := NewCollectionModel()
	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m.ApplySnapshot([]domain.Job{{ID: "v1", Title: "Old title", Status: domain.JobStatusTranscribing, CreatedAt: t1}})
	m.Select("v1")
	m.ApplySnapshot([]domain.Job{{ID: "v1", Title: "New title", Status: domain.JobStatusSummarizing, CreatedAt: t1}})

	selected, state := m.Selected()
	require.Equal(t, SelectionActive, state)
	// Every field must come from the newest snapshot.
	assert.Equal(t, "New title", selected.Title)
	assert.Equal(t, domain.JobStatusSummarizing, selected.Status)
}

func TestCollectionModel_SelectionOrphanedWhenJobDisappears(t *testing.T) {
	m := NewCollectionModel()

	m.ApplySnapshot([]domain.Job{{ID: "v1"}, {ID: "v2"}})
	m.Select("v2")
	m.ApplySnapshot([]domain.Job{{ID: "v1"}})

	selected, state := m.Selected()
	assert.Equal(t, SelectionOrphaned, state)
	assert.Zero(t, selected)
}

func TestCollectionModel_OptimisticSelectBeforeFirstSnapshot(t *testing.T) {
	m := NewCollectionModel()
	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	m.Select("v1")
	_, state := m.Selected()
	assert.Equal(t, SelectionOrphaned, state)

	// Two deliveries: [v1], then [v2, v1] after a newer upload.
	m.ApplySnapshot([]domain.Job{{ID: "v1", Status: domain.JobStatusUploaded, CreatedAt: t1}})
	m.ApplySnapshot([]domain.Job{
		{ID: "v2", Status: domain.JobStatusUploaded, CreatedAt: t2},
		{ID: "v1", Status: domain.JobStatusTranscribing, CreatedAt: t1},
	})

	selected, state := m.Selected()
	require.Equal(t, SelectionActive, state)
	assert.Equal(t, "v1", selected.ID)
	assert.Equal(t, domain.JobStatusTranscribing, selected.Status)
}

func TestCollectionModel_Deselect(t *testing.T) {
	m := NewCollectionModel()
	m.ApplySnapshot([]domain.Job{{ID: "v1"}})
	m.Select("v1")
	m.Deselect()

	_, state := m.Selected()
	assert.Equal(t, SelectionNone, state)
}

func TestCollectionModel_JobsReturnsCopy(t *testing.T) {
	m := NewCollectionModel()
	m.ApplySnapshot([]domain.Job{{ID: "v1", Title: "a"}})

	jobs := m.Jobs()
	jobs[0].Title = "mutated"

	assert.Equal(t, "a", m.Jobs()[0].Title)
}
