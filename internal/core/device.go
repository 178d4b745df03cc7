package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeComputer   DeviceType = "computer"
	DeviceTypeSmartphone DeviceType = "smartphone"
	DeviceTypeTablet     DeviceType = "tablet"
	DeviceTypeSpeaker    DeviceType = "speaker"
	DeviceTypeTV         DeviceType = "tv"
	DeviceTypeOther      DeviceType = "other"
)

// Device represents a Spotify Connect playback device.
type Device struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          DeviceType `json:"type"`
	IsActive      bool       `json:"is_active"`
	VolumePercent *int       `json:"volume_percent,omitempty"`
}

// SavedDevice is the persisted shape of the last selected device.
type SavedDevice struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type DeviceType `json:"type"`
}

// Saved returns the persisted shape of d.
func (d Device) Saved() SavedDevice {
	return SavedDevice{ID: d.ID, Name: d.Name, Type: d.Type}
}

// FindDevice returns the device with the given id, or nil.
func FindDevice(devices []Device, id string) *Device {
	if id == "" {
		return nil
	}
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i]
		}
	}
	return nil
}

// ActiveDevice returns the first device the remote reports as active, or nil.
func ActiveDevice(devices []Device) *Device {
	for i := range devices {
		if devices[i].IsActive {
			return &devices[i]
		}
	}
	return nil
}
