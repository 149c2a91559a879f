package core

import "github.com/vkoshev/relay/internal/domain"

type SessionID string

// MemberSession binds a user identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}
