package main

import (
	"fmt"

	"mysqladm/bootstrap"
	"mysqladm/protocol"
)

// withClient bootstraps a connection to the server, waits for its Ready
// frame, runs fn, and always sends Exit before closing — mirroring the
// protocol's documented Accept/Ready/Loop/Exit session shape from the
// client's side of the wire.
func withClient(fn func(*protocol.Conn) error) error {
	conn, err := bootstrap.Connect(flagSocketPath, flagConfigPath)
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	defer conn.Close()

	wire := protocol.NewConn(conn)

	resp, err := wire.ReadResponse()
	if err != nil {
		return fmt.Errorf("read ready frame: %w", err)
	}
	switch r := resp.(type) {
	case protocol.ReadyResponse:
		// proceed
	case protocol.ErrorResponse:
		return fmt.Errorf("server: %s", r.Message)
	default:
		return fmt.Errorf("unexpected frame %T before ready", resp)
	}

	err = fn(wire)

	_ = wire.WriteRequest(protocol.ExitRequest{})

	return err
}
