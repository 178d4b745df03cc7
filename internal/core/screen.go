package core

// Screen is the phase of a hosting session. Exactly one is active.
type Screen string

const (
	ScreenLogin       Screen = "login"
	ScreenDeviceSetup Screen = "device-setup"
	ScreenActivePlay  Screen = "active-play"
)

// Session is the authenticated session held by the controller.
// Token is never persisted by the controller.
type Session struct {
	Token    string
	DeviceID string
}

// Snapshot is an immutable view of controller state published after
// every change.
type Snapshot struct {
	Screen   Screen        `json:"screen"`
	DeviceID string        `json:"device_id"`
	Devices  []Device      `json:"devices"`
	Playback PlaybackState `json:"playback"`
	Profile  *Profile      `json:"profile,omitempty"`
}

// SelectedDevice returns the selected device from the last listing, or nil.
func (s Snapshot) SelectedDevice() *Device {
	return FindDevice(s.Devices, s.DeviceID)
}
