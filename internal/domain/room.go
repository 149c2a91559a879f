package domain

import "errors"

const MaxRoomIDLen = 36

var ErrRoomNotFound = errors.New("Room does not exist")

type RoomID string

// Room is a named broadcast group. The key is minted once, on first
// creation, and never changes for the life of the room.
type Room struct {
	ID  RoomID
	Key GroupKey
}
