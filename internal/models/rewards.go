package models

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// RewardSet is a set of reward identifiers. Insertion order is irrelevant and
// duplicates collapse. The JSON form is a sorted array, so the encoding of a
// given set is stable.
type RewardSet map[uuid.UUID]struct{}

func NewRewardSet(ids ...uuid.UUID) RewardSet {
	s := make(RewardSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s RewardSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s RewardSet) Len() int {
	return len(s)
}

// IDs returns the members sorted by their string form.
func (s RewardSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (s RewardSet) Clone() RewardSet {
	c := make(RewardSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s RewardSet) Equal(o RewardSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if _, ok := o[id]; !ok {
			return false
		}
	}
	return true
}

func (s RewardSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *RewardSet) UnmarshalJSON(b []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewRewardSet(ids...)
	return nil
}
