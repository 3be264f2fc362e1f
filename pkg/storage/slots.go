package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/pkg/errors"
)

// Key layout:
//
//	slot:<date>:<id>   confirmed slot, partitioned by date
//	slotidx:<id>       date of a confirmed slot
//	pending:<id>       proposal awaiting its creator
//	meta:team_chat_id  registered destination
const (
	slotPrefix     = "slot:"
	slotIndexPref  = "slotidx:"
	pendingPrefix  = "pending:"
	destinationKey = "meta:team_chat_id"
)

// ErrDuplicateID is returned when appending a record whose id is taken
var ErrDuplicateID = errors.New("id already in use")

func slotKey(date, id string) string {
	return slotPrefix + date + ":" + id
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

// idTaken reports whether id is used by a confirmed slot or a proposal
func idTaken(txn *badger.Txn, id string) (bool, error) {
	ok, err := exists(txn, slotIndexPref+id)
	if err != nil || ok {
		return ok, err
	}
	return exists(txn, pendingPrefix+id)
}

func putSlot(txn *badger.Txn, slot models.Slot) error {
	if err := setJSON(txn, slotKey(slot.Date, slot.ID), slot); err != nil {
		return err
	}
	return txn.Set([]byte(slotIndexPref+slot.ID), []byte(slot.Date))
}

// AppendConfirmed stores a confirmed slot
func (s *Store) AppendConfirmed(ctx context.Context, slot models.Slot) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		taken, err := idTaken(txn, slot.ID)
		if err != nil {
			return err
		}
		if taken {
			return errors.Wrapf(ErrDuplicateID, "slot %s", slot.ID)
		}
		return putSlot(txn, slot)
	})
	return errors.Wrap(err, "append confirmed slot")
}

// AppendPending stores a proposal
func (s *Store) AppendPending(ctx context.Context, proposal models.Proposal) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		taken, err := idTaken(txn, proposal.ID)
		if err != nil {
			return err
		}
		if taken {
			return errors.Wrapf(ErrDuplicateID, "proposal %s", proposal.ID)
		}
		return setJSON(txn, pendingPrefix+proposal.ID, proposal)
	})
	return errors.Wrap(err, "append pending proposal")
}

// ListConfirmed returns the confirmed slots of date, or of every date when
// date is empty, ordered by date, start time and creation time
func (s *Store) ListConfirmed(ctx context.Context, date string) ([]models.Slot, error) {
	prefix := slotPrefix
	if date != "" {
		prefix = slotPrefix + date + ":"
	}

	var slots []models.Slot
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, prefix, func(key string, val []byte) error {
			var slot models.Slot
			if err := json.Unmarshal(val, &slot); err != nil {
				return errors.Wrapf(err, "decode %s", key)
			}
			slots = append(slots, slot)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "list confirmed slots")
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return slots, nil
}

// ListPending returns every proposal ordered by creation time
func (s *Store) ListPending(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, pendingPrefix, func(key string, val []byte) error {
			var p models.Proposal
			if err := json.Unmarshal(val, &p); err != nil {
				return errors.Wrapf(err, "decode %s", key)
			}
			proposals = append(proposals, p)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "list pending proposals")
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
	})
	return proposals, nil
}

// FindPending returns the proposal with id, or nil if there is none
func (s *Store) FindPending(ctx context.Context, id string) (*models.Proposal, error) {
	var p models.Proposal
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, pendingPrefix+id, &p)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find proposal %s", id)
	}
	return &p, nil
}

func findSlot(txn *badger.Txn, id string) (*models.Slot, error) {
	item, err := txn.Get([]byte(slotIndexPref + id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	date, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	var slot models.Slot
	err = getJSON(txn, slotKey(string(date), id), &slot)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindConfirmed returns the confirmed slot with id, or nil if there is none
func (s *Store) FindConfirmed(ctx context.Context, id string) (*models.Slot, error) {
	var slot *models.Slot
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		slot, err = findSlot(txn, id)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "find slot %s", id)
	}
	return slot, nil
}

// DeletePending removes a proposal and reports whether it existed
func (s *Store) DeletePending(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		ok, err := exists(txn, pendingPrefix+id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return txn.Delete([]byte(pendingPrefix + id))
	})
	if err != nil {
		return false, errors.Wrapf(err, "delete proposal %s", id)
	}
	return deleted, nil
}

// DeleteConfirmed removes a confirmed slot and reports whether it existed
func (s *Store) DeleteConfirmed(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		slot, err := findSlot(txn, id)
		if err != nil || slot == nil {
			return err
		}
		deleted = true
		if err := txn.Delete([]byte(slotKey(slot.Date, id))); err != nil {
			return err
		}
		return txn.Delete([]byte(slotIndexPref + id))
	})
	if err != nil {
		return false, errors.Wrapf(err, "delete slot %s", id)
	}
	return deleted, nil
}

// SetReminderFlag marks the slot's reminder as sent and reports whether the
// slot exists. The flag is never cleared.
func (s *Store) SetReminderFlag(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		slot, err := findSlot(txn, id)
		if err != nil || slot == nil {
			return err
		}
		found = true
		if slot.ReminderSent {
			return nil
		}
		slot.ReminderSent = true
		return setJSON(txn, slotKey(slot.Date, id), slot)
	})
	if err != nil {
		return false, errors.Wrapf(err, "set reminder flag on %s", id)
	}
	return found, nil
}

// PromotePending moves a proposal into the confirmed collection in a single
// transaction. It returns nil if the proposal does not exist.
func (s *Store) PromotePending(ctx context.Context, id string) (*models.Slot, error) {
	var promoted *models.Slot
	err := s.update(ctx, func(txn *badger.Txn) error {
		var p models.Proposal
		err := getJSON(txn, pendingPrefix+id, &p)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		slot := p.Confirmed()
		if err := putSlot(txn, slot); err != nil {
			return err
		}
		if err := txn.Delete([]byte(pendingPrefix + id)); err != nil {
			return err
		}
		promoted = &slot
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "promote proposal %s", id)
	}
	return promoted, nil
}

// GetRegisteredDestination returns the team chat, if one was registered
func (s *Store) GetRegisteredDestination(ctx context.Context) (models.Destination, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	var dest models.Destination
	err := s.Get(destinationKey, &dest)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "get team destination")
	}
	return dest, true, nil
}

// SetRegisteredDestination replaces the team chat
func (s *Store) SetRegisteredDestination(ctx context.Context, dest models.Destination) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(s.Set(destinationKey, dest), "set team destination")
}
