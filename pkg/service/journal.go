package service

import (
	"encoding/json"

	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/storage"
	"github.com/pkg/errors"
)

const journalKeyPrefix = "sheetflow.history."

// JournalKey is the store key holding the history of a workflow.
func JournalKey(wf models.Workflow) string {
	return journalKeyPrefix + string(wf)
}

// Journal is the durable, newest-first history of personnel submissions.
// Reads never fail; a missing or unreadable record is an empty history.
type Journal struct {
	store  storage.Store
	logger Logger
}

func NewJournal(store storage.Store, logger Logger) *Journal {
	return &Journal{
		store:  store,
		logger: logger,
	}
}

// Load returns the stored history of wf, newest first.
func (j *Journal) Load(wf models.Workflow) []models.HistoryItem {
	raw, err := j.store.Get(JournalKey(wf))
	if errors.Is(err, storage.ErrNotFound) {
		j.logger.Debugf("No journal for workflow '%s' yet", wf)
		return []models.HistoryItem{}
	}
	if err != nil {
		j.logger.Warnf("Failed to read journal for workflow '%s': %v", wf, err)
		return []models.HistoryItem{}
	}

	var items []models.HistoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		j.logger.Warnf("Discarding unreadable journal for workflow '%s': %v", wf, err)
		return []models.HistoryItem{}
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return items
}

// Append puts item in front of current and persists the whole sequence.
// When the store supports atomic updates the stored sequence is used instead
// of current, so records written by another process since the last Load are
// kept. The new sequence is returned even when persisting fails.
func (j *Journal) Append(wf models.Workflow, current []models.HistoryItem, item models.HistoryItem) ([]models.HistoryItem, error) {
	items := prepend(item, current)
	encode := func(stored []byte) ([]byte, error) {
		if stored != nil {
			var base []models.HistoryItem
			if err := json.Unmarshal(stored, &base); err != nil {
				j.logger.Warnf("Replacing unreadable journal for workflow '%s': %v", wf, err)
			} else {
				items = prepend(item, base)
			}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, errors.Wrapf(err, "encode journal for '%s'", wf)
		}
		return raw, nil
	}

	var err error
	if u, ok := j.store.(storage.Updater); ok {
		err = u.Update(JournalKey(wf), encode)
	} else {
		var raw []byte
		if raw, err = encode(nil); err == nil {
			err = j.store.Put(JournalKey(wf), raw)
		}
	}
	if err != nil {
		j.logger.Errorf("Failed to persist journal for workflow '%s': %v", wf, err)
		return items, errors.Wrapf(err, "persist journal for '%s'", wf)
	}
	j.logger.Debugf("Journal for workflow '%s' now holds %d records", wf, len(items))
	return items, nil
}

func prepend(item models.HistoryItem, rest []models.HistoryItem) []models.HistoryItem {
	items := make([]models.HistoryItem, 0, len(rest)+1)
	items = append(items, item)
	return append(items, rest...)
}
