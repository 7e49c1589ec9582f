package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{ id int }

func (nopSender) Send(string, any) error { return nil }

func TestConnectSubscribesInbox(t *testing.T) {
	r := NewRegistry()

	r.Connect("alice", nopSender{})

	assert.True(t, r.Online("alice"))
	assert.Len(t, r.ChannelMembers(UserChannel("alice")), 1)
	assert.Empty(t, r.ChannelMembers(UserChannel("bob")))
}

func TestSubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	connID := r.Connect("alice", nopSender{})

	channel := RoomChannel("general")
	r.Subscribe(connID, channel)
	assert.Len(t, r.ChannelMembers(channel), 1)

	r.Unsubscribe(connID, channel)
	assert.Empty(t, r.ChannelMembers(channel))

	// Unknown handles are silent no-ops.
	r.Subscribe("ghost", channel)
	assert.Empty(t, r.ChannelMembers(channel))
}

func TestDisconnectRemovesEverywhere(t *testing.T) {
	r := NewRegistry()
	connID := r.Connect("alice", nopSender{})
	r.Subscribe(connID, RoomChannel("general"))
	r.Subscribe(connID, RoomChannel("random"))

	identity, offline := r.Disconnect(connID)
	assert.Equal(t, "alice", identity)
	assert.True(t, offline)
	assert.False(t, r.Online("alice"))
	assert.Empty(t, r.ChannelMembers(RoomChannel("general")))
	assert.Empty(t, r.ChannelMembers(RoomChannel("random")))
	assert.Empty(t, r.ChannelMembers(UserChannel("alice")))

	// Idempotent.
	_, offline = r.Disconnect(connID)
	assert.False(t, offline)
}

func TestMultiDeviceIdentity(t *testing.T) {
	r := NewRegistry()
	phone := r.Connect("alice", nopSender{id: 1})
	laptop := r.Connect("alice", nopSender{id: 2})

	assert.Len(t, r.ChannelMembers(UserChannel("alice")), 2)

	_, offline := r.Disconnect(phone)
	assert.False(t, offline, "one device left")
	assert.True(t, r.Online("alice"))

	_, offline = r.Disconnect(laptop)
	assert.True(t, offline)
	assert.False(t, r.Online("alice"))
}

func TestChannelMembersSnapshot(t *testing.T) {
	r := NewRegistry()
	channel := RoomChannel("general")

	a := r.Connect("alice", nopSender{id: 1})
	b := r.Connect("bob", nopSender{id: 2})
	r.Subscribe(a, channel)
	r.Subscribe(b, channel)

	members := r.ChannelMembers(channel)
	require.Len(t, members, 2)

	r.Disconnect(a)
	assert.Len(t, r.ChannelMembers(channel), 1, "later snapshots see the leave")
}

func TestConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	channel := RoomChannel("general")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := r.Connect(fmt.Sprintf("user-%d", i%10), nopSender{id: i})
			r.Subscribe(connID, channel)
			r.ChannelMembers(channel)
			r.Unsubscribe(connID, channel)
			r.Disconnect(connID)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.ChannelMembers(channel))
	for i := 0; i < 10; i++ {
		assert.False(t, r.Online(fmt.Sprintf("user-%d", i)))
	}
}
