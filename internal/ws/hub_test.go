package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func connect(h *Hub, playerID string) *Client {
	c := &Client{
		PlayerID: playerID,
		Send:     make(chan OutgoingMessage, 8),
		Hub:      h,
	}
	h.register <- c
	return c
}

func recv(t *testing.T, c *Client) OutgoingMessage {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no message for %s", c.PlayerID)
		return OutgoingMessage{}
	}
}

func Test_Hub_BroadcastToPlayers(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	p1 := connect(h, "p1")
	p2 := connect(h, "p2")
	p3 := connect(h, "p3")

	h.BroadcastToPlayers([]string{"p1", "p2"}, OutgoingMessage{Event: "matched"})

	assert.Equal(t, "matched", recv(t, p1).Event)
	assert.Equal(t, "matched", recv(t, p2).Event)
	select {
	case msg := <-p3.Send:
		t.Fatalf("p3 got unexpected %q", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_Hub_SendToPlayer(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	p1 := connect(h, "p1")
	h.SendToPlayer("p1", OutgoingMessage{Event: "bot_match"})
	assert.Equal(t, "bot_match", recv(t, p1).Event)

	// Unknown player: silently dropped, hub keeps running.
	h.SendToPlayer("nobody", OutgoingMessage{Event: "bot_match"})
	h.SendToPlayer("p1", OutgoingMessage{Event: "bot_match"})
	assert.Equal(t, "bot_match", recv(t, p1).Event)
}

func Test_Hub_UnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	p1 := connect(h, "p1")
	h.unregister <- p1

	select {
	case _, open := <-p1.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}

	// Messages to a departed player are dropped without blocking.
	h.BroadcastToPlayers([]string{"p1"}, OutgoingMessage{Event: "matched"})
}

func Test_Hub_SlowConsumerDoesNotStall(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	slow := &Client{PlayerID: "slow", Send: make(chan OutgoingMessage), Hub: h}
	h.register <- slow
	fast := connect(h, "fast")

	// Nothing reads slow.Send; the hub must drop instead of blocking.
	for i := 0; i < 5; i++ {
		h.BroadcastToPlayers([]string{"slow", "fast"}, OutgoingMessage{Event: "matched"})
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, "matched", recv(t, fast).Event)
	}
}

func Test_Hub_IncomingDispatch(t *testing.T) {
	h := NewHub()
	got := make(chan IncomingMessage, 1)
	h.OnIncoming = func(msg IncomingMessage) { got <- msg }
	go h.Run()
	defer h.Close()

	h.incoming <- IncomingMessage{From: "p1", Event: "heartbeat"}

	select {
	case msg := <-got:
		assert.Equal(t, "p1", msg.From)
		assert.Equal(t, "heartbeat", msg.Event)
	case <-time.After(time.Second):
		t.Fatal("incoming message was not dispatched")
	}
}
