package orch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkoshev/relay/internal/app"
	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) received() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Frame(nil), f.frames...)
}

func newTestOrch() *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRooms(),
	}
}

// connect wires a fake connection the way the signal adapter does.
func connect(o *Orchestrator, sid core.SessionID, name string) *fakeConn {
	conn := &fakeConn{}
	user := o.Registry.GetOrCreateUser(sid)
	o.Registry.Bind(sid, core.NewMemberSession(user, conn), func() {})
	if name != "" {
		_ = o.Registry.SetIdentity(sid, name)
	}
	return conn
}

func TestCreateRoom_RequiresIdentity(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "")

	_, err := o.CreateRoom("a", "r1")
	req.ErrorIs(err, domain.ErrIdentityMissing)

	// The directory was never touched: no room, no key.
	_, ok := o.Rooms.Get("r1")
	req.False(ok)
}

func TestJoinRoom_RequiresIdentity(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")
	connect(o, "b", "")

	_, err := o.CreateRoom("a", "r1")
	req.NoError(err)

	_, err = o.JoinRoom("b", "r1")
	req.ErrorIs(err, domain.ErrIdentityMissing)

	room, _ := o.Rooms.Get("r1")
	req.Equal(1, room.MemberCount())
}

func TestCreateRoom_AutoJoinsCreator(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")

	key, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	req.NotEmpty(key)

	room, ok := o.Rooms.Get("r1")
	req.True(ok)
	req.Equal(1, room.MemberCount())

	roomID, ok := o.Registry.RoomOf("a")
	req.True(ok)
	req.Equal(domain.RoomID("r1"), roomID)
}

func TestCreateRoom_Idempotent(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")
	connect(o, "b", "bob")

	key1, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	key2, err := o.CreateRoom("b", "r1")
	req.NoError(err)

	// Same room, same key, both creators are members.
	req.Equal(key1, key2)
	room, _ := o.Rooms.Get("r1")
	req.Equal(2, room.MemberCount())
}

func TestJoinRoom_SharesTheKey(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")
	connect(o, "b", "bob")

	created, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	joined, err := o.JoinRoom("b", "r1")
	req.NoError(err)

	req.Equal(created, joined)
}

func TestJoinRoom_Missing(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")

	_, err := o.JoinRoom("a", "r2")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	// Nothing was created and the connection stays roomless.
	_, ok := o.Rooms.Get("r2")
	req.False(ok)
	_, ok = o.Registry.RoomOf("a")
	req.False(ok)
}

func TestPublish_ExcludesSender(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connA := connect(o, "a", "alice")
	connB := connect(o, "b", "bob")
	connC := connect(o, "c", "carol")

	_, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	_, err = o.JoinRoom("b", "r1")
	req.NoError(err)
	_, err = o.JoinRoom("c", "r1")
	req.NoError(err)

	payload := core.Frame(`{"type":"receive-message","payload":"ENC1"}`)
	res, ok := o.Publish("b", "r1", payload)
	req.True(ok)
	req.Equal(2, res.SentTo)

	req.Len(connA.received(), 1)
	req.Equal(payload, connA.received()[0])
	req.Len(connC.received(), 1)
	req.Empty(connB.received())
}

func TestPublish_UnknownRoomDrops(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")

	_, ok := o.Publish("a", "nowhere", core.Frame("x"))
	req.False(ok)
	_, exists := o.Rooms.Get("nowhere")
	req.False(exists)
}

func TestDisconnect_RemovesMembership(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")
	connD := connect(o, "d", "dave")

	_, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	_, err = o.JoinRoom("d", "r1")
	req.NoError(err)

	o.Disconnect("d")

	room, _ := o.Rooms.Get("r1")
	req.Equal(1, room.MemberCount())
	_, ok := o.Registry.GetSession("d")
	req.False(ok)

	// A later send does not attempt delivery to the gone member.
	before := len(connD.received())
	res, ok := o.Publish("a", "r1", core.Frame("after"))
	req.True(ok)
	req.Equal(0, res.SentTo)
	req.Len(connD.received(), before)

	// Disconnecting twice is harmless.
	o.Disconnect("d")
}

func TestEnterRoom_LeavesPreviousRoom(t *testing.T) {
	req := require.New(t)
	o := newTestOrch()
	connect(o, "a", "alice")
	connect(o, "b", "bob")

	_, err := o.CreateRoom("a", "r1")
	req.NoError(err)
	_, err = o.JoinRoom("b", "r1")
	req.NoError(err)

	_, err = o.CreateRoom("b", "r2")
	req.NoError(err)

	r1, _ := o.Rooms.Get("r1")
	r2, _ := o.Rooms.Get("r2")
	req.Equal(1, r1.MemberCount())
	req.Equal(1, r2.MemberCount())

	roomID, _ := o.Registry.RoomOf("b")
	req.Equal(domain.RoomID("r2"), roomID)
}
