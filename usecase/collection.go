package usecase

import (
	"sync"

	"github.com/classtream/lectures-client/domain"
)

// SelectionState describes what Selected currently refers to.
type SelectionState int

const (
	// SelectionNone means nothing is selected.
	SelectionNone SelectionState = iota
	// SelectionActive means the selected id is present in the snapshot.
	SelectionActive
	// SelectionOrphaned means the selected id vanished from the latest
	// snapshot. A display condition, not an error.
	SelectionOrphaned
)

// CollectionModel owns the latest jobs snapshot and the user's selection.
// Selection is held by id, never by reference: the object backing an id is
// replaced wholesale on every snapshot, so reads always resolve against the
// current snapshot.
//
// All mutation goes through the mutex; one model instance serves one
// dashboard session.
type CollectionModel struct {
	mu         sync.RWMutex
	snapshot   []domain.Job
	selectedID string
}

func NewCollectionModel() *CollectionModel {
	return &CollectionModel{}
}

// ApplySnapshot replaces the current snapshot. The previously selected job
// object is discarded; any selection is re-resolved against the new data.
func (m *CollectionModel) ApplySnapshot(jobs []domain.Job) {
	snap := make([]domain.Job, len(jobs))
	copy(snap, jobs)

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
}

// Select marks a job as the one being viewed. Selecting an id that has not
// arrived in any snapshot yet is allowed; it resolves once the id shows up.
func (m *CollectionModel) Select(id string) {
	m.mu.Lock()
	m.selectedID = id
	m.mu.Unlock()
}

func (m *CollectionModel) Deselect() {
	m.mu.Lock()
	m.selectedID = ""
	m.mu.Unlock()
}

// Selected resolves the selection against the latest snapshot. The zero Job
// is returned unless the state is SelectionActive.
func (m *CollectionModel) Selected() (domain.Job, SelectionState) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.selectedID == "" {
		return domain.Job{}, SelectionNone
	}
	for _, j := range m.snapshot {
		if j.ID == m.selectedID {
			return j, SelectionActive
		}
	}
	return domain.Job{}, SelectionOrphaned
}

// Jobs returns a copy of the current snapshot in delivery order.
func (m *CollectionModel) Jobs() []domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Job, len(m.snapshot))
	copy(out, m.snapshot)
	return out
}
