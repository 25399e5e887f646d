package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// DefaultSocketPath is where the daemon listens for control commands.
const DefaultSocketPath = "/tmp/chief.sock"

// ControlMessage is one command sent from chief-ctl to the daemon.
// Cmd is "trigger" (start an interaction) or "mode" (switch the prompt
// mode, Arg carries the mode command text).
type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

// StartServer listens on a unix socket and invokes handler for every
// decoded message. A stale socket file from a previous run is removed.
func StartServer(path string, handler func(ControlMessage)) error {
	if path == "" {
		path = DefaultSocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

// Send connects to the daemon socket and delivers a single message.
func Send(path string, msg ControlMessage) error {
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	return enc.Encode(msg)
}
