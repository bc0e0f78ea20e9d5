// internal/tunnel/pump.go
package tunnel

import (
	"context"
	"errors"
	"io"
)

// FrameSource is the inbound half of a frame transport.
// RecvFrame blocks until one frame arrives.
type FrameSource interface {
	RecvFrame() ([]byte, error)
}

// Pump delivers frames from src to rx until ctx is done or src fails.
// io.EOF from src ends the pump without error.
// Cancellation is observed between frames; close the transport to
// unblock a pending RecvFrame.
func Pump(ctx context.Context, src FrameSource, rx *Rx) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.RecvFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		rx.Accept(frame)
	}
}
