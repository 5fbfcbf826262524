package control

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 2 * time.Second

// Call sends req to the daemon listening on socketPath and decodes the single
// JSON reply into out.
func Call(socketPath string, req Request, out any) error {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("cannot connect to daemon: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("send %s request: %w", req.Op, err)
	}
	if err := json.NewDecoder(conn).Decode(out); err != nil {
		return fmt.Errorf("read %s response: %w", req.Op, err)
	}
	return nil
}

// CallSimple is Call for ops answered with a SimpleResponse. A response with
// OK unset becomes an error.
func CallSimple(socketPath string, req Request) (SimpleResponse, error) {
	var resp SimpleResponse
	if err := Call(socketPath, req, &resp); err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("%s failed: %s", req.Op, resp.Message)
	}
	return resp, nil
}
