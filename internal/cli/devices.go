package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/cuecard/internal/core"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long: `Lists the Spotify Connect devices on your account.

The saved device is marked with *; the device Spotify reports as active with ●.`,
	RunE: runDevices,
}

var devicesSelectCmd = &cobra.Command{
	Use:   "select [device]",
	Short: "Choose the playback device",
	Long: `Transfers playback to a device and saves it for the next session.

Without an argument, shows a picker. The argument may be a device ID or name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDevicesSelect,
}

var devicesForgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Forget the saved device",
	RunE:  runDevicesForget,
}

func init() {
	devicesCmd.AddCommand(devicesSelectCmd)
	devicesCmd.AddCommand(devicesForgetCmd)
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	devices, err := s.player.ListDevices(ctx)
	if err != nil {
		return err
	}
	saved := s.devices.Load()

	if JSONOutput() {
		output := make([]map[string]any, 0, len(devices))
		for _, d := range devices {
			item := map[string]any{
				"id":        d.ID,
				"name":      d.Name,
				"type":      d.Type,
				"is_active": d.IsActive,
				"saved":     saved != nil && saved.ID == d.ID,
			}
			if d.VolumePercent != nil {
				item["volume"] = *d.VolumePercent
			}
			output = append(output, item)
		}
		return printJSON(output)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found. Open Spotify on a phone, computer or speaker.")
		return nil
	}

	t := NewTable("", "NAME", "TYPE", "VOLUME")
	for _, d := range devices {
		mark := " "
		if saved != nil && saved.ID == d.ID {
			mark = "*"
		}
		volume := "-"
		if d.VolumePercent != nil {
			volume = fmt.Sprintf("%d%%", *d.VolumePercent)
		}
		name := d.Name
		if d.IsActive {
			name += " " + StatusIcon(true)
		}
		if Verbose() {
			name += " (" + d.ID + ")"
		}
		t.Row(mark, name, getDeviceIcon(d.Type)+" "+string(d.Type), volume)
	}
	t.Flush()

	if saved != nil && core.FindDevice(devices, saved.ID) == nil {
		fmt.Printf("\nSaved device %q is offline.\n", saved.Name)
	}
	return nil
}

func runDevicesSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	devices, err := s.player.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	var device *core.Device
	if len(args) == 1 {
		device = resolveDevice(devices, args[0])
		if device == nil {
			return fmt.Errorf("device not found: %s", args[0])
		}
	} else {
		device, err = pickDevice(devices)
		if err != nil {
			return err
		}
	}

	if err := s.player.SelectAndTransfer(ctx, device.ID, false); err != nil {
		return err
	}
	if err := s.devices.Save(device.Saved()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "selected", "id": device.ID, "name": device.Name})
	}
	fmt.Printf("Playing on %s\n", device.Name)
	return nil
}

func runDevicesForget(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	s, err := newSession(logger)
	if err != nil {
		return err
	}
	if err := s.devices.Clear(); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "forgotten"})
	}
	fmt.Println("Saved device forgotten.")
	return nil
}

// resolveDevice finds a device by ID, then by case-insensitive name.
func resolveDevice(devices []core.Device, query string) *core.Device {
	if d := core.FindDevice(devices, query); d != nil {
		return d
	}
	for i := range devices {
		if strings.EqualFold(devices[i].Name, query) {
			return &devices[i]
		}
	}
	return nil
}

func pickDevice(devices []core.Device) (*core.Device, error) {
	var options []huh.Option[string]
	selectedID := ""
	for _, d := range devices {
		label := fmt.Sprintf("%s (%s)", d.Name, d.Type)
		if d.IsActive {
			label += " [active]"
			selectedID = d.ID
		}
		options = append(options, huh.NewOption(label, d.ID))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select playback device").
				Description("Cards will play here until you pick another device").
				Options(options...).
				Value(&selectedID),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return core.FindDevice(devices, selectedID), nil
}

func getDeviceIcon(deviceType core.DeviceType) string {
	switch deviceType {
	case core.DeviceTypeComputer:
		return "💻"
	case core.DeviceTypeSmartphone, core.DeviceTypeTablet:
		return "📱"
	case core.DeviceTypeSpeaker:
		return "🔊"
	case core.DeviceTypeTV:
		return "📺"
	default:
		return "🎧"
	}
}
