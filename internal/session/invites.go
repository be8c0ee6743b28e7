package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultInviteTTL bounds how long an unanswered invite stays valid.
const DefaultInviteTTL = 60 * time.Second

var ErrInviteNotFound = errors.New("invite not found or expired")

// Invite is a single-use offer from one participant to another.
type Invite struct {
	ID        string    `json:"inviteId"`
	InviterID string    `json:"inviterId"`
	InviteeID string    `json:"inviteeId"`
	ChannelID string    `json:"channelId"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// InviteStore keeps pending invites in memory. Each invite expires after
// the TTL regardless of response and can be taken at most once.
type InviteStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	invites map[string]Invite
}

func NewInviteStore(ttl time.Duration) *InviteStore {
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	return &InviteStore{ttl: ttl, invites: make(map[string]Invite)}
}

// Create registers a new pending invite and arms its expiry.
func (s *InviteStore) Create(channelID, inviterID, inviteeID string) Invite {
	now := time.Now()
	inv := Invite{
		ID:        uuid.NewString(),
		InviterID: inviterID,
		InviteeID: inviteeID,
		ChannelID: channelID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.invites[inv.ID] = inv
	s.mu.Unlock()

	time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		delete(s.invites, inv.ID)
		s.mu.Unlock()
	})

	return inv
}

// Take removes and returns a pending invite. Only the invited user may
// consume it; anyone else fails and the invite stays pending. A second
// Take of the same id, or a Take after expiry, fails.
func (s *InviteStore) Take(inviteID, inviteeID string) (Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invites[inviteID]
	if !ok || time.Now().After(inv.ExpiresAt) {
		delete(s.invites, inviteID)
		return Invite{}, ErrInviteNotFound
	}
	if inv.InviteeID != inviteeID {
		return Invite{}, ErrInviteNotFound
	}
	delete(s.invites, inviteID)
	return inv, nil
}

// PendingFor lists invites involving the given user, either side.
func (s *InviteStore) PendingFor(userID string) []Invite {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invite
	now := time.Now()
	for _, inv := range s.invites {
		if now.After(inv.ExpiresAt) {
			continue
		}
		if inv.InviterID == userID || inv.InviteeID == userID {
			out = append(out, inv)
		}
	}
	return out
}
