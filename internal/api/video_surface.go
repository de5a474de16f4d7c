// internal/api/video_surface.go
package api

// remoteSurface bridges the playback controller to the browser's video
// element: every command is broadcast over the status socket and executed
// client-side. The controller stays authoritative for timing; the element
// only obeys.
type remoteSurface struct {
	hub *StatusHub
}

type surfaceCommand struct {
	Command string  `json:"command"`
	Seconds float64 `json:"seconds,omitempty"`
}

func newRemoteSurface(hub *StatusHub) *remoteSurface {
	return &remoteSurface{hub: hub}
}

func (s *remoteSurface) Seek(seconds float64) {
	s.hub.Broadcast("video", surfaceCommand{Command: "seek", Seconds: seconds})
}

func (s *remoteSurface) Play() {
	s.hub.Broadcast("video", surfaceCommand{Command: "play"})
}

func (s *remoteSurface) Pause() {
	s.hub.Broadcast("video", surfaceCommand{Command: "pause"})
}
