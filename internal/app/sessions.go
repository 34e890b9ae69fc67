package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/session"
	"github.com/okian/fairmeet/pkg/metrics"
)

// SessionView is a snapshot of a session.
type SessionView struct {
	ID       string         `json:"id"`
	Category model.Category `json:"category"`
	Parties  []model.Party  `json:"parties"`
}

func view(s *session.Session) SessionView {
	return SessionView{ID: s.ID(), Category: s.Category(), Parties: s.Parties()}
}

// CreateSession starts a session seeded with the local user and one friend.
func (s *Service) CreateSession(ctx context.Context) SessionView {
	sess := session.New(uuid.NewString())

	s.sessMu.Lock()
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.sessMu.Unlock()

	metrics.UpdateActiveSessions(n)
	s.logger.Debug(ctx, "session created")
	return view(sess)
}

// GetSession returns a snapshot of the session.
func (s *Service) GetSession(id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return view(sess), nil
}

// DeleteSession forgets a session.
func (s *Service) DeleteSession(id string) error {
	s.sessMu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.sessMu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.UpdateActiveSessions(n)
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}

// AddParty appends the next friend to the session.
func (s *Service) AddParty(id string) (model.Party, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return model.Party{}, err
	}
	return sess.AddParty(), nil
}

// RemoveParty removes a party; sessions never drop below two parties.
func (s *Service) RemoveParty(id, partyID string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	return sess.RemoveParty(partyID)
}

// UpdatePosition sets or clears a party's position.
func (s *Service) UpdatePosition(id, partyID string, pos *model.Point) error {
	if pos != nil {
		if err := pos.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	return sess.UpdatePosition(partyID, pos)
}

// RecommendForSession runs Recommend over the session's parties. A non-empty
// category replaces the session's current one.
func (s *Service) RecommendForSession(ctx context.Context, id string, category model.Category) (Recommendation, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Recommendation{}, err
	}
	if category != "" {
		sess.SetCategory(category.Normalize())
	}
	return s.Recommend(ctx, RecommendRequest{Parties: sess.Parties(), Category: sess.Category()}), nil
}

func (s *Service) lookup(id string) (*session.Session, error) {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
