package core

import (
	"time"

	"github.com/vkoshev/relay/internal/domain"
)

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	Key() domain.GroupKey
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	Broadcast(from SessionID, data Frame) PublishResult

	// EmptySince reports when the room last became memberless.
	// Zero time means the room currently has members.
	EmptySince() time.Time
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomID"`
	MemberCount int           `json:"count"`
	Members     []MemberDTO   `json:"members"`
}

// RoomDirectory is the single source of truth for room existence.
type RoomDirectory interface {
	// Create returns the room for id, minting it (and its key) only if
	// it does not exist yet. created reports whether a new room was made.
	Create(id domain.RoomID) (room RoomService, created bool, err error)
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	Evict(id domain.RoomID)
}
