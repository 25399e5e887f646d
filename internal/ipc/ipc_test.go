package ipc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "chief.sock")

	received := make(chan ControlMessage, 1)
	require.NoError(t, StartServer(socket, func(msg ControlMessage) {
		received <- msg
	}))

	require.NoError(t, Send(socket, ControlMessage{Cmd: "mode", Arg: "switch to instructor mode"}))

	select {
	case msg := <-received:
		assert.Equal(t, "mode", msg.Cmd)
		assert.Equal(t, "switch to instructor mode", msg.Arg)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message")
	}
}

func TestSendTriggerWithoutArg(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "chief.sock")

	received := make(chan ControlMessage, 1)
	require.NoError(t, StartServer(socket, func(msg ControlMessage) {
		received <- msg
	}))

	require.NoError(t, Send(socket, ControlMessage{Cmd: "trigger"}))

	select {
	case msg := <-received:
		assert.Equal(t, "trigger", msg.Cmd)
		assert.Empty(t, msg.Arg)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message")
	}
}

func TestSendWithoutServer(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "nobody-home.sock")
	assert.Error(t, Send(socket, ControlMessage{Cmd: "trigger"}))
}

func TestStartServerReplacesStaleSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "chief.sock")

	require.NoError(t, StartServer(socket, func(ControlMessage) {}))

	// A second daemon start must claim the socket, not fail on the leftover
	// file. The first listener keeps running but the path now belongs to the
	// new server.
	received := make(chan ControlMessage, 1)
	require.NoError(t, StartServer(socket, func(msg ControlMessage) {
		received <- msg
	}))

	require.NoError(t, Send(socket, ControlMessage{Cmd: "trigger"}))
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement server never received the message")
	}
}
