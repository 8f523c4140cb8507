package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeSession runs one session on conn. It returns once run has returned
// and everything queued has been written.
func ServeSession(hub *Hub, conn *websocket.Conn, sessionID string, cancel context.CancelFunc, onActivity func(), run func(*Surface) error) error {
	client := NewClient(hub, conn, sessionID, cancel)
	client.OnActivity = onActivity
	hub.Register(client)

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	writeDone := make(chan struct{})
	go func() {
		client.WritePump()
		close(writeDone)
	}()
	go client.ReadPump()

	err := run(NewSurface(client))
	client.Close()
	<-writeDone
	return err
}
