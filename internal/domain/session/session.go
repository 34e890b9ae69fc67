// Package session tracks the parties taking part in one meetup search.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/okian/fairmeet/internal/domain/model"
)

// MinParties is the number of parties that must always remain in a session.
const MinParties = 2

// Sentinel kinds for session errors.
var (
	ErrMinimumParties = errors.New("a session needs at least two parties")
	ErrPartyNotFound  = errors.New("party not found")
)

var palette = []string{"#fbbc04", "#34a853", "#a142f4", "#f06292", "#26c6da"}

// Session is a mutable list of parties. It is safe for concurrent use.
type Session struct {
	id       string
	mu       sync.RWMutex
	parties  []model.Party
	category model.Category
	nextSeq  int
}

// New creates a session seeded with the local user and one friend.
func New(id string) *Session {
	return &Session{
		id: id,
		parties: []model.Party{
			{ID: "you", Label: "You", Color: "#1a73e8"},
			{ID: "friend-1", Label: "Friend 1", Color: "#ea4335"},
		},
		category: model.CategoryDining,
		nextSeq:  2,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Parties returns a copy of the parties in insertion order.
func (s *Session) Parties() []model.Party {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Party, len(s.parties))
	for i, p := range s.parties {
		out[i] = p
		if p.Position != nil {
			pos := *p.Position
			out[i].Position = &pos
		}
	}
	return out
}

// Category returns the last selected category.
func (s *Session) Category() model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// SetCategory selects the category used for recommendations.
func (s *Session) SetCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = c
}

// AddParty appends a new unpositioned friend and returns it.
func (s *Session) AddParty() model.Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextSeq
	s.nextSeq++
	p := model.Party{
		ID:    "friend-" + strconv.Itoa(n),
		Label: "Friend " + strconv.Itoa(n),
		Color: palette[(n-2)%len(palette)],
	}
	s.parties = append(s.parties, p)
	return p
}

// RemoveParty deletes a party unless that would leave fewer than MinParties.
func (s *Session) RemoveParty(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPartyNotFound, id)
	}
	if len(s.parties) <= MinParties {
		return ErrMinimumParties
	}
	s.parties = append(s.parties[:idx], s.parties[idx+1:]...)
	return nil
}

// UpdatePosition sets or clears a party's position. A nil position clears it.
func (s *Session) UpdatePosition(id string, pos *model.Point) error {
	if pos != nil {
		if err := pos.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPartyNotFound, id)
	}
	if pos == nil {
		s.parties[idx].Position = nil
		return nil
	}
	p := *pos
	s.parties[idx].Position = &p
	return nil
}

// Eligible returns the positioned parties.
func (s *Session) Eligible() []model.Party {
	return model.Eligible(s.Parties())
}

func (s *Session) indexLocked(id string) int {
	for i, p := range s.parties {
		if p.ID == id {
			return i
		}
	}
	return -1
}
