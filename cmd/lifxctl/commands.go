package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/lifxctl/internal/cloud"
	"github.com/muurk/lifxctl/internal/config"
	"github.com/muurk/lifxctl/internal/discovery"
	"github.com/muurk/lifxctl/internal/lan"
	"github.com/muurk/lifxctl/internal/logging"
	"github.com/muurk/lifxctl/internal/protocol"
	"github.com/muurk/lifxctl/internal/tui"
	"github.com/muurk/lifxctl/internal/ui"
)

// Command flags
var (
	lanWindow    string  // Reply collection window (e.g., "1s", "500ms")
	lanPort      int     // Bulb UDP service port
	broadcastIP  string  // Broadcast address override
	lanVerbose   bool    // Show raw datagrams
	outputFormat string  // Output format (detailed, json)
	withMDNS     bool    // Scan: also run an mDNS sweep
	fadeSeconds  float64 // Fade duration for power/color changes
	dashDevice   string  // Dashboard: start on this device
	pingCount    int

	colorHue        float64
	colorSaturation float64
	colorBrightness float64
	colorKelvin     int

	cloudPower      string
	cloudColor      string
	cloudBrightness float64
	cloudDuration   float64

	forceInit bool
)

func init() {
	// Common flags for LAN commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&lanWindow, "window", "", "Reply collection window (e.g., 500ms, 2s; default from config)")
	rootCmd.PersistentFlags().IntVar(&lanPort, "port", 0, "Bulb UDP port (default from config, normally 56700)")
	rootCmd.PersistentFlags().StringVar(&broadcastIP, "broadcast", "", "Broadcast address (default 255.255.255.255)")
	rootCmd.PersistentFlags().BoolVarP(&lanVerbose, "verbose", "v", false, "Show raw datagrams sent and received")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(cloudCmd)
	rootCmd.AddCommand(configCmd)
}

// scanCmd discovers bulbs on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for bulbs on the local network",
	Long: `Scan for bulbs by broadcasting a UDP discovery probe and collecting
the service announcements that come back.

Every bulb that answers is recorded in the local registry with its
address and label, so later commands can address it by ID or nickname
without rescanning. Use --mdns to additionally sweep for HomeKit-style
mDNS advertisements, which can find bulbs on networks where UDP
broadcast is filtered.`,
	Example: `  # Scan with the default 1 second window
  lifxctl scan

  # Longer window for sleepy or distant bulbs
  lifxctl scan --window 3s

  # Also sweep mDNS
  lifxctl scan --mdns

  # JSON output for scripting
  lifxctl scan --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&withMDNS, "mdns", false, "Also scan for mDNS advertisements")
	scanCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	stepNames := []string{"Broadcasting discovery probe"}
	if withMDNS {
		stepNames = append(stepNames, "Scanning mDNS")
	}
	stepNames = append(stepNames, "Resolving labels", "Updating registry")

	runnerConfig := ui.RunnerConfig{
		Title:      "Network scan",
		Command:    "lifxctl scan",
		Params:     scanParams(registry, window),
		TotalSteps: len(stepNames),
		StepNames:  stepNames,
		Verbose:    lanVerbose,
	}
	if outputFormat == "json" {
		// Keep stdout clean for the JSON document
		runnerConfig.Output = ui.NewPrinter(io.Discard)
	}
	runner := ui.NewRunner(runnerConfig)

	ctx := context.Background()
	var devices []*discovery.Device

	_, err = runner.RunWithResult(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
		step := 1

		onStep(step, "", ui.StepRunning, "")
		scanner := discovery.NewLANScanner(client)
		scanner.Window = window
		scanner.Port = servicePort(registry)
		lanDevices, err := scanner.Scan(ctx)
		if err != nil {
			onStep(step, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(step, "", ui.StepComplete, fmt.Sprintf("%d bulbs", len(lanDevices)))
		step++

		devices = lanDevices
		if withMDNS {
			onStep(step, "", ui.StepRunning, "")
			mdnsDevices, err := discovery.NewScanner().ScanForDevicesWithContext(ctx)
			if err != nil {
				// mDNS is best-effort beside the broadcast probe
				onStep(step, "", ui.StepFailed, err.Error())
			} else {
				onStep(step, "", ui.StepComplete, fmt.Sprintf("%d entries", len(mdnsDevices)))
				devices = discovery.Merge(lanDevices, mdnsDevices)
			}
			step++
		}

		onStep(step, "", ui.StepRunning, "")
		if err := scanner.ResolveLabels(ctx, devices); err != nil {
			onStep(step, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(step, "", ui.StepComplete, "")
		step++

		onStep(step, "", ui.StepRunning, "")
		for _, dev := range devices {
			if dev.ID == "" {
				continue
			}
			if dev.Source == discovery.SourceLAN {
				registry.UpdateDeviceLastSeen(dev.ID, dev.IP, dev.Port)
			}
			if dev.Label != "" {
				registry.RecordLabel(dev.ID, dev.Label)
			}
		}
		if err := config.SaveGlobal(); err != nil {
			onStep(step, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(step, "", ui.StepComplete, "")

		details := map[string]string{
			"Bulbs found": fmt.Sprintf("%d", len(devices)),
		}
		if path, err := config.GetConfigPath(); err == nil {
			details["Registry"] = path
		}
		return details, nil
	})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(devices, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(devices) == 0 {
		fmt.Println()
		fmt.Println("No bulbs found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check the bulbs have power and show up in the vendor app")
		fmt.Println("  - Some routers block UDP broadcast between WiFi clients")
		fmt.Println("  - Try a longer window: lifxctl scan --window 3s")
		fmt.Println("  - Try a directed broadcast: lifxctl scan --broadcast 192.168.1.255")
		return nil
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	fmt.Println()
	for i, dev := range devices {
		fmt.Printf("%d. %s\n", i+1, registry.DisplayName(dev.ID))
		fmt.Printf("   ID:      %s\n", dev.ID)
		fmt.Printf("   Address: %s:%d\n", dev.IP, dev.Port)
		fmt.Printf("   Source:  %s\n", dev.Source)
		if dev.Label != "" {
			fmt.Printf("   Label:   %s\n", dev.Label)
		}
		if dev.Model != "" {
			fmt.Printf("   Model:   %s\n", dev.Model)
		}
		fmt.Println()
	}

	fmt.Println("Use 'lifxctl power <id> on' to control a bulb")
	fmt.Println("Use 'lifxctl dashboard' for interactive control")

	return nil
}

// powerCmd switches a bulb on or off
var powerCmd = &cobra.Command{
	Use:   "power <target> <on|off>",
	Short: "Switch a bulb on or off",
	Long: `Switch a bulb on or off over the LAN.

The target can be a bulb ID (as printed by scan), a registry nickname,
or a bulb-reported label. The change fades over --duration seconds.`,
	Example: `  # By bulb ID
  lifxctl power d073d50a1b2c on

  # By nickname, with a slow fade
  lifxctl power "desk lamp" off --duration 3`,
	Args: cobra.ExactArgs(2),
	RunE: runPower,
}

func init() {
	powerCmd.Flags().Float64Var(&fadeSeconds, "duration", 1.0, "Fade duration in seconds")
}

func runPower(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	var level uint16
	switch strings.ToLower(args[1]) {
	case "on":
		level = protocol.PowerOn
	case "off":
		level = protocol.PowerOff
	default:
		return fmt.Errorf("power state must be on or off, got %q", args[1])
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	dev, err := resolveDevice(ctx, client, registry, args[0])
	if err != nil {
		return err
	}

	fade := fadeFor(cmd, registry)
	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	ui.PrintCommandHeader("Power", "lifxctl power", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Target": fmt.Sprintf("%s:%d", dev.IP, dev.Port),
		"Power":  strings.ToUpper(args[1]),
		"Fade":   fade.String(),
	})

	replies, err := client.Send(ctx, window, lan.Request{
		Type:        protocol.TypeLightSetPower,
		Payload:     protocol.BuildLightSetPower(level, fade),
		Target:      dev.Target,
		AckRequired: true,
		Addr:        dev.Addr(),
	})
	if err != nil {
		ui.PrintFailure("Power change failed", err, lanTroubleshooting())
		return err
	}

	printDatagrams(dev, replies)

	if !ackReceived(client, replies) {
		err := fmt.Errorf("no acknowledgement from %s within %s", dev.ID, windowOrDefault(window))
		ui.PrintFailure("Power change unconfirmed", err, lanTroubleshooting())
		return err
	}

	ui.PrintSuccess("Power updated", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Power":  strings.ToUpper(args[1]),
		"Fade":   fade.String(),
	})
	return nil
}

// colorCmd sets a bulb's color
var colorCmd = &cobra.Command{
	Use:   "color <target>",
	Short: "Set a bulb's color",
	Long: `Set a bulb's color over the LAN.

Color is given as hue (degrees), saturation and brightness (fractions),
and kelvin (color temperature, used when saturation is 0). All four
components are always sent; unspecified ones use their defaults.`,
	Example: `  # Warm white at full brightness
  lifxctl color kitchen --kelvin 2700

  # Saturated red at half brightness
  lifxctl color d073d50a1b2c --hue 0 --saturation 1 --brightness 0.5

  # Slow fade to blue
  lifxctl color "desk lamp" --hue 240 --saturation 1 --duration 5`,
	Args: cobra.ExactArgs(1),
	RunE: runColor,
}

func init() {
	colorCmd.Flags().Float64Var(&colorHue, "hue", 0, "Hue in degrees (0-360)")
	colorCmd.Flags().Float64Var(&colorSaturation, "saturation", 0, "Saturation (0-1)")
	colorCmd.Flags().Float64Var(&colorBrightness, "brightness", 1, "Brightness (0-1)")
	colorCmd.Flags().IntVar(&colorKelvin, "kelvin", 3500, "Color temperature in kelvin (1500-9000)")
	colorCmd.Flags().Float64Var(&fadeSeconds, "duration", 1.0, "Fade duration in seconds")
}

func runColor(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	hsbk, err := buildHSBK()
	if err != nil {
		return err
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	dev, err := resolveDevice(ctx, client, registry, args[0])
	if err != nil {
		return err
	}

	fade := fadeFor(cmd, registry)
	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	ui.PrintCommandHeader("Color", "lifxctl color", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Target": fmt.Sprintf("%s:%d", dev.IP, dev.Port),
		"Color":  fmt.Sprintf("hue %.0f° sat %.0f%% bri %.0f%% %dK", colorHue, colorSaturation*100, colorBrightness*100, colorKelvin),
		"Fade":   fade.String(),
	})

	replies, err := client.Send(ctx, window, lan.Request{
		Type:        protocol.TypeLightSetColor,
		Payload:     protocol.BuildSetColor(hsbk, fade),
		Target:      dev.Target,
		AckRequired: true,
		Addr:        dev.Addr(),
	})
	if err != nil {
		ui.PrintFailure("Color change failed", err, lanTroubleshooting())
		return err
	}

	printDatagrams(dev, replies)

	if !ackReceived(client, replies) {
		err := fmt.Errorf("no acknowledgement from %s within %s", dev.ID, windowOrDefault(window))
		ui.PrintFailure("Color change unconfirmed", err, lanTroubleshooting())
		return err
	}

	ui.PrintSuccess("Color updated", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Color":  hsbk.String(),
		"Fade":   fade.String(),
	})
	return nil
}

// labelCmd renames a bulb
var labelCmd = &cobra.Command{
	Use:   "label <target> <new-label>",
	Short: "Set the label stored on a bulb",
	Long: `Set the label a bulb reports about itself.

The label is stored on the bulb and is limited to 32 bytes. The bulb
echoes the stored label back, and the registry records it so scans and
commands show the new name immediately.`,
	Example: `  lifxctl label d073d50a1b2c "Reading Lamp"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runLabel,
}

func runLabel(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	newLabel := args[1]
	if len(newLabel) > protocol.LabelSize {
		return fmt.Errorf("label is %d bytes, the bulb stores at most %d", len(newLabel), protocol.LabelSize)
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	dev, err := resolveDevice(ctx, client, registry, args[0])
	if err != nil {
		return err
	}

	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	ui.PrintCommandHeader("Label", "lifxctl label", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Target": fmt.Sprintf("%s:%d", dev.IP, dev.Port),
		"Label":  newLabel,
	})

	replies, err := client.Send(ctx, window, lan.Request{
		Type:        protocol.TypeSetLabel,
		Payload:     protocol.BuildSetLabel(newLabel),
		Target:      dev.Target,
		ResRequired: true,
		Addr:        dev.Addr(),
	})
	if err != nil {
		ui.PrintFailure("Label change failed", err, lanTroubleshooting())
		return err
	}

	printDatagrams(dev, replies)

	frame := firstReplyOfType(client, dev, replies, protocol.TypeStateLabel)
	if frame == nil {
		err := fmt.Errorf("no label confirmation from %s within %s", dev.ID, windowOrDefault(window))
		ui.PrintFailure("Label change unconfirmed", err, lanTroubleshooting())
		return err
	}

	stored, err := protocol.ParseStateLabel(frame.Payload)
	if err != nil {
		ui.PrintFailure("Label change unconfirmed", err, nil)
		return err
	}

	registry.RecordLabel(dev.ID, stored)
	if err := config.SaveGlobal(); err != nil {
		logging.Warn("Could not save registry", zap.Error(err))
	}

	ui.PrintSuccess("Label updated", map[string]string{
		"Device": dev.ID,
		"Label":  stored,
	})
	return nil
}

// pingCmd measures round-trip time to a bulb
var pingCmd = &cobra.Command{
	Use:   "ping <target>",
	Short: "Measure round-trip time to a bulb",
	Long: `Send echo probes to a bulb and measure the round-trip time.

Each probe carries a unique payload the bulb must echo back verbatim.
A probe that gets no matching echo within the reply window counts as
lost.`,
	Example: `  # Three probes (default)
  lifxctl ping d073d50a1b2c

  # Ten probes with a short window
  lifxctl ping kitchen --count 10 --window 300ms`,
	Args: cobra.ExactArgs(1),
	RunE: runPing,
}

func init() {
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of echo probes to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if pingCount < 1 {
		return fmt.Errorf("count must be at least 1, got %d", pingCount)
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	dev, err := resolveDevice(ctx, client, registry, args[0])
	if err != nil {
		return err
	}

	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	ui.PrintCommandHeader("Ping", "lifxctl ping", map[string]string{
		"Device": registry.DisplayName(dev.ID),
		"Target": fmt.Sprintf("%s:%d", dev.IP, dev.Port),
		"Probes": fmt.Sprintf("%d", pingCount),
	})

	packets := ui.NewPacketLog()
	var rtts []time.Duration
	lost := 0

	for i := 0; i < pingCount; i++ {
		payload := protocol.BuildEchoRequest([]byte(fmt.Sprintf("lifxctl ping %d %d", i, time.Now().UnixNano())))

		sentAt := time.Now()
		replies, err := client.Send(ctx, window, lan.Request{
			Type:    protocol.TypeEchoRequest,
			Payload: payload,
			Target:  dev.Target,
			Addr:    dev.Addr(),
		})
		if err != nil {
			ui.PrintFailure("Ping failed", err, lanTroubleshooting())
			return err
		}

		for _, dg := range replies {
			packets.AddReceive(dg.Addr.String(), dg.Data)
		}

		rtt, ok := matchEcho(client, dev, replies, payload, sentAt)
		if ok {
			rtts = append(rtts, rtt)
			fmt.Printf("  reply from %s: probe=%d time=%.1fms\n", dev.IP, i+1, float64(rtt.Microseconds())/1000)
		} else {
			lost++
			fmt.Printf("  probe=%d no echo within %s\n", i+1, windowOrDefault(window))
		}
	}

	if lanVerbose {
		ui.PrintPacketLog(packets)
	}

	if len(rtts) == 0 {
		err := fmt.Errorf("all %d probes lost", pingCount)
		ui.PrintFailure("Bulb unreachable", err, lanTroubleshooting())
		return err
	}

	min, max, avg := rttStats(rtts)
	ui.PrintSuccess("Bulb reachable", map[string]string{
		"Device":   registry.DisplayName(dev.ID),
		"Received": fmt.Sprintf("%d/%d", len(rtts), pingCount),
		"Min":      fmt.Sprintf("%.1fms", float64(min.Microseconds())/1000),
		"Avg":      fmt.Sprintf("%.1fms", float64(avg.Microseconds())/1000),
		"Max":      fmt.Sprintf("%.1fms", float64(max.Microseconds())/1000),
	})

	if lost > 0 {
		return fmt.Errorf("%d of %d probes lost", lost, pingCount)
	}
	return nil
}

// dashboardCmd launches the interactive TUI
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive control dashboard",
	Long: `Launch an interactive TUI for discovering and controlling bulbs.

The dashboard scans the network, lists the bulbs that answered, and
lets you drive power, brightness, and hue live with the keyboard.

This is the recommended way to control bulbs for most users.`,
	Example: `  # Launch with a fresh scan
  lifxctl dashboard
  # Or simply (dashboard is default):
  lifxctl

  # Jump straight to a known bulb
  lifxctl dashboard --device d073d50a1b2c`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashDevice, "device", "", "Start on this bulb (ID, nickname, or label)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := newLANClient(registry)
	if err != nil {
		return err
	}
	defer client.Close()

	window, err := windowDuration(registry)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Client:   client,
		Registry: registry,
		Window:   window,
		Port:     servicePort(registry),
	}

	if dashDevice != "" {
		dev, err := resolveDevice(context.Background(), client, registry, dashDevice)
		if err != nil {
			return err
		}
		return tui.Run(tui.ScreenControl, dev, opts)
	}

	return tui.Run(tui.ScreenScan, nil, opts)
}

// cloudCmd groups the cloud REST API commands
var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Control lights through the vendor cloud API",
	Long: `Control lights through the vendor cloud REST API.

Cloud commands reach bulbs anywhere the account can see them, including
away from the local network, and expose account-level features like
scenes. They need a personal access token; store one with
'lifxctl cloud login'.

Selectors address lights the way the API does: all, id:<id>,
label:<name>, group:<name>, or location:<name>. The default is all.`,
}

func init() {
	cloudCmd.AddCommand(cloudLightsCmd)
	cloudCmd.AddCommand(cloudStateCmd)
	cloudCmd.AddCommand(cloudToggleCmd)
	cloudCmd.AddCommand(cloudScenesCmd)
	cloudCmd.AddCommand(cloudActivateCmd)
	cloudCmd.AddCommand(cloudLoginCmd)
	cloudCmd.AddCommand(cloudLogoutCmd)
}

// cloudLightsCmd lists lights on the account
var cloudLightsCmd = &cobra.Command{
	Use:   "lights [selector]",
	Short: "List lights visible to the account",
	Example: `  # All lights
  lifxctl cloud lights

  # One group
  lifxctl cloud lights group:Bedroom

  # JSON for scripting
  lifxctl cloud lights --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCloudLights,
}

func init() {
	cloudLightsCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runCloudLights(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := cloudClient()
	if err != nil {
		return err
	}

	selector := ""
	if len(args) == 1 {
		selector = args[0]
	}

	lights, err := client.ListLights(selector)
	if err != nil {
		return cloudFailure("Listing lights failed", err)
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(lights, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(lights) == 0 {
		fmt.Println("No lights matched.")
		return nil
	}

	for i, light := range lights {
		state := "offline"
		if light.Connected {
			state = light.Power
		}
		fmt.Printf("%d. %s\n", i+1, light.Label)
		fmt.Printf("   ID:         %s\n", light.ID)
		fmt.Printf("   State:      %s\n", state)
		fmt.Printf("   Brightness: %.0f%%\n", light.Brightness*100)
		if light.Group.Name != "" {
			fmt.Printf("   Group:      %s\n", light.Group.Name)
		}
		if light.Location.Name != "" {
			fmt.Printf("   Location:   %s\n", light.Location.Name)
		}
		fmt.Println()
	}

	return nil
}

// cloudStateCmd sets light state through the cloud
var cloudStateCmd = &cobra.Command{
	Use:   "state <selector>",
	Short: "Set light state through the cloud",
	Long: `Set power, color, or brightness on the lights a selector matches.

At least one of --power, --color, or --brightness must be given;
components not given are left untouched. Color strings are passed to
the API as-is (e.g. "red", "hue:120 saturation:1.0", "kelvin:2700").`,
	Example: `  # Everything off
  lifxctl cloud state all --power off

  # One group to half brightness over 5 seconds
  lifxctl cloud state group:Bedroom --brightness 0.5 --duration 5

  # A named color
  lifxctl cloud state label:"Desk Lamp" --color red`,
	Args: cobra.ExactArgs(1),
	RunE: runCloudState,
}

func init() {
	cloudStateCmd.Flags().StringVar(&cloudPower, "power", "", "Power state (on or off)")
	cloudStateCmd.Flags().StringVar(&cloudColor, "color", "", "Color string, passed to the API as-is")
	cloudStateCmd.Flags().Float64Var(&cloudBrightness, "brightness", 0, "Brightness (0-1)")
	cloudStateCmd.Flags().Float64Var(&cloudDuration, "duration", 1.0, "Fade duration in seconds")
}

func runCloudState(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	update := cloud.StateUpdate{
		Power:    cloudPower,
		Color:    cloudColor,
		Duration: cloudDuration,
	}
	if cmd.Flags().Changed("brightness") {
		if cloudBrightness < 0 || cloudBrightness > 1 {
			return fmt.Errorf("brightness must be between 0 and 1, got %g", cloudBrightness)
		}
		update.Brightness = &cloudBrightness
	}
	if update.Power == "" && update.Color == "" && update.Brightness == nil {
		return fmt.Errorf("nothing to change: give at least one of --power, --color, --brightness")
	}
	if update.Power != "" && update.Power != "on" && update.Power != "off" {
		return fmt.Errorf("power must be on or off, got %q", update.Power)
	}

	client, err := cloudClient()
	if err != nil {
		return err
	}

	results, err := client.SetState(args[0], update)
	if err != nil {
		return cloudFailure("State change failed", err)
	}

	printCloudResults(results)
	return nil
}

// cloudToggleCmd toggles power through the cloud
var cloudToggleCmd = &cobra.Command{
	Use:   "toggle <selector>",
	Short: "Toggle light power through the cloud",
	Example: `  # Toggle everything
  lifxctl cloud toggle all

  # Toggle one light with a 2 second fade
  lifxctl cloud toggle label:"Desk Lamp" --duration 2`,
	Args: cobra.ExactArgs(1),
	RunE: runCloudToggle,
}

func init() {
	cloudToggleCmd.Flags().Float64Var(&cloudDuration, "duration", 1.0, "Fade duration in seconds")
}

func runCloudToggle(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := cloudClient()
	if err != nil {
		return err
	}

	results, err := client.Toggle(args[0], cloudDuration)
	if err != nil {
		return cloudFailure("Toggle failed", err)
	}

	printCloudResults(results)
	return nil
}

// cloudScenesCmd lists scenes on the account
var cloudScenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List scenes stored on the account",
	RunE:  runCloudScenes,
}

func runCloudScenes(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := cloudClient()
	if err != nil {
		return err
	}

	scenes, err := client.ListScenes()
	if err != nil {
		return cloudFailure("Listing scenes failed", err)
	}

	if len(scenes) == 0 {
		fmt.Println("No scenes on this account.")
		return nil
	}

	for i, scene := range scenes {
		fmt.Printf("%d. %s\n", i+1, scene.Name)
		fmt.Printf("   UUID: %s\n", scene.UUID)
		fmt.Println()
	}

	fmt.Println("Use 'lifxctl cloud activate <uuid>' to apply a scene")
	return nil
}

// cloudActivateCmd activates a scene
var cloudActivateCmd = &cobra.Command{
	Use:     "activate <scene-uuid>",
	Short:   "Activate a scene",
	Example: `  lifxctl cloud activate 5a1b2c3d-... --duration 3`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCloudActivate,
}

func init() {
	cloudActivateCmd.Flags().Float64Var(&cloudDuration, "duration", 1.0, "Fade duration in seconds")
}

func runCloudActivate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := cloudClient()
	if err != nil {
		return err
	}

	results, err := client.ActivateScene(args[0], cloudDuration)
	if err != nil {
		return cloudFailure("Scene activation failed", err)
	}

	printCloudResults(results)
	return nil
}

// cloudLoginCmd stores a cloud API token
var cloudLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a cloud API personal access token",
	Long: `Store a cloud API personal access token in the local registry.

Generate a token in the vendor cloud account settings, then paste it at
the hidden prompt. The token is verified against the API before it is
saved. The LIFXCTL_CLOUD_TOKEN environment variable overrides the
stored token when set.`,
	RunE: runCloudLogin,
}

func runCloudLogin(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	fmt.Print("Cloud API token (input hidden): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("could not read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	// Verify before storing
	lights, err := cloud.NewClient(token).ListLights("")
	if err != nil {
		return cloudFailure("Token verification failed", err)
	}

	registry.SetCloudToken(token)
	if err := config.SaveGlobal(); err != nil {
		return fmt.Errorf("could not save token: %w", err)
	}

	ui.PrintSuccess("Logged in", map[string]string{
		"Lights visible": fmt.Sprintf("%d", len(lights)),
	})
	return nil
}

// cloudLogoutCmd removes the stored token
var cloudLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored cloud API token",
	RunE:  runCloudLogout,
}

func runCloudLogout(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	if registry.CloudToken == "" {
		fmt.Println("No token stored.")
		return nil
	}

	registry.ClearCloudToken()
	if err := config.SaveGlobal(); err != nil {
		return fmt.Errorf("could not remove token: %w", err)
	}

	fmt.Println("Token removed.")
	return nil
}

// configCmd groups local configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the local configuration file",
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configNicknameCmd)
}

// configInitCmd writes a default configuration file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create a configuration file with default preferences and an example
device entry. If a configuration file already exists, asks before
overwriting it (use --force to skip the prompt).`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration without asking")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		ok := ui.ConfirmOverwrite(path, []string{
			"Stored device nicknames will be lost",
			"The cloud API token will be removed",
		})
		if !ok {
			return nil
		}
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("could not write configuration: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// configPathCmd prints the configuration file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

// configNicknameCmd assigns a nickname to a bulb
var configNicknameCmd = &cobra.Command{
	Use:   "nickname <target-id> <name>",
	Short: "Assign a nickname to a bulb",
	Long: `Assign a local nickname to a bulb. Nicknames are stored in the
configuration file, shown instead of the bulb label everywhere, and
accepted as targets by the LAN commands.`,
	Example: `  lifxctl config nickname d073d50a1b2c "desk lamp"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runConfigNickname,
}

func runConfigNickname(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if _, err := discovery.ParseID(args[0]); err != nil {
		return fmt.Errorf("invalid bulb ID %q: %w", args[0], err)
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	registry.SetDeviceNickname(strings.ToLower(args[0]), args[1])
	if err := config.SaveGlobal(); err != nil {
		return fmt.Errorf("could not save registry: %w", err)
	}

	fmt.Printf("%s is now %q\n", strings.ToLower(args[0]), args[1])
	return nil
}

// --- Helpers ---

// loadRegistry loads the config registry, initializing logging first.
func loadRegistry() (*config.Registry, error) {
	// Initialize logging from environment variable (silent by default)
	// Set LIFXCTL_LOG_LEVEL=debug to see detailed logs
	if err := logging.InitializeFromEnv(); err != nil {
		// Ignore error, GetLogger will create fallback logger
		_ = err
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	return registry, nil
}

// newLANClient builds the broadcast-capable UDP client LAN commands use.
func newLANClient(registry *config.Registry) (*lan.Client, error) {
	addr := broadcastIP
	if addr == "" && registry.Preferences != nil {
		addr = registry.Preferences.BroadcastAddr
	}

	opts := lan.Options{}
	if addr != "" {
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, fmt.Errorf("invalid broadcast address %q", addr)
		}
		opts.BroadcastIP = ip
	}

	client, err := lan.CreateBroadcast(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open LAN socket: %w", err)
	}
	return client, nil
}

// windowDuration resolves the reply collection window from the flag or
// the configured discovery timeout. Zero means the client default.
func windowDuration(registry *config.Registry) (time.Duration, error) {
	if lanWindow != "" {
		window, err := time.ParseDuration(lanWindow)
		if err != nil {
			return 0, fmt.Errorf("invalid window value %q: %w", lanWindow, err)
		}
		if window <= 0 {
			return 0, fmt.Errorf("window must be positive, got %s", window)
		}
		return window, nil
	}
	if registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		return time.Duration(registry.Preferences.DiscoverTimeout) * time.Second, nil
	}
	return 0, nil
}

// windowOrDefault names the effective window for error messages.
func windowOrDefault(window time.Duration) time.Duration {
	if window == 0 {
		return lan.DefaultWindow
	}
	return window
}

// servicePort resolves the bulb UDP port from the flag or configuration.
func servicePort(registry *config.Registry) int {
	if lanPort > 0 {
		return lanPort
	}
	if registry.Preferences != nil && registry.Preferences.Port > 0 {
		return registry.Preferences.Port
	}
	return protocol.DefaultPort
}

// fadeFor resolves the fade duration: the flag when given, otherwise the
// configured default.
func fadeFor(cmd *cobra.Command, registry *config.Registry) time.Duration {
	seconds := fadeSeconds
	if !cmd.Flags().Changed("duration") && registry.Preferences != nil && registry.Preferences.DefaultDuration > 0 {
		seconds = registry.Preferences.DefaultDuration
	}
	return time.Duration(seconds * float64(time.Second))
}

// resolveDevice turns a target argument (bulb ID, nickname, or label)
// into an addressable device, using the registry's last-seen address
// when available and falling back to a network scan.
func resolveDevice(ctx context.Context, client *lan.Client, registry *config.Registry, arg string) (*discovery.Device, error) {
	id, target, ok := findRegistryTarget(registry, arg)
	if ok {
		if entry := registry.GetDevice(id); entry != nil && entry.LastIP != "" {
			port := entry.LastPort
			if port == 0 {
				port = protocol.DefaultPort
			}
			return &discovery.Device{
				ID:     id,
				Target: target,
				IP:     entry.LastIP,
				Port:   port,
				Label:  entry.Label,
				Source: discovery.SourceLAN,
			}, nil
		}
	}

	// Not in the registry (or never seen at an address): scan for it
	scanner := discovery.NewLANScanner(client)
	scanner.Port = servicePort(registry)
	devices, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not scan for %q: %w", arg, err)
	}

	for _, dev := range devices {
		if ok && dev.Target == target {
			return rememberDevice(registry, dev), nil
		}
	}

	// The argument may name a label the registry has never recorded
	if err := scanner.ResolveLabels(ctx, devices); err == nil {
		for _, dev := range devices {
			if strings.EqualFold(dev.Label, arg) {
				return rememberDevice(registry, dev), nil
			}
		}
	}

	return nil, fmt.Errorf("no bulb matching %q found: run 'lifxctl scan' to see what's on the network", arg)
}

// findRegistryTarget resolves a target argument to a canonical bulb ID,
// accepting raw IDs, registry nicknames, and recorded labels.
func findRegistryTarget(registry *config.Registry, arg string) (string, uint64, bool) {
	if target, err := discovery.ParseID(arg); err == nil {
		return discovery.FormatID(target), target, true
	}

	for id, entry := range registry.Devices {
		if strings.EqualFold(entry.Nickname, arg) || strings.EqualFold(entry.Label, arg) {
			if target, err := discovery.ParseID(id); err == nil {
				return discovery.FormatID(target), target, true
			}
		}
	}

	return "", 0, false
}

// rememberDevice records a freshly discovered device in the registry so
// the next command skips the scan.
func rememberDevice(registry *config.Registry, dev *discovery.Device) *discovery.Device {
	if dev.ID != "" {
		registry.UpdateDeviceLastSeen(dev.ID, dev.IP, dev.Port)
		if dev.Label != "" {
			registry.RecordLabel(dev.ID, dev.Label)
		}
		if err := config.SaveGlobal(); err != nil {
			logging.Warn("Could not save registry", zap.Error(err))
		}
	}
	return dev
}

// ackReceived reports whether any reply is an acknowledgement of a frame
// this client sent.
func ackReceived(client *lan.Client, datagrams []lan.Datagram) bool {
	for _, dg := range datagrams {
		frame, err := protocol.Decode(dg.Data)
		if err != nil {
			continue
		}
		if frame.Type == protocol.TypeAcknowledgement && frame.Source == client.Nonce() {
			return true
		}
	}
	return false
}

// firstReplyOfType returns the first reply of the wanted type addressed
// from the device to this client, or nil.
func firstReplyOfType(client *lan.Client, dev *discovery.Device, datagrams []lan.Datagram, want protocol.MessageType) *protocol.Frame {
	for _, dg := range datagrams {
		frame, err := protocol.Decode(dg.Data)
		if err != nil {
			continue
		}
		if frame.Type != want || frame.Source != client.Nonce() {
			continue
		}
		if frame.Target != protocol.TargetBroadcast && frame.Target != dev.Target {
			continue
		}
		return frame
	}
	return nil
}

// matchEcho finds the echo of the given probe payload and returns its
// round-trip time.
func matchEcho(client *lan.Client, dev *discovery.Device, datagrams []lan.Datagram, payload []byte, sentAt time.Time) (time.Duration, bool) {
	for _, dg := range datagrams {
		frame, err := protocol.Decode(dg.Data)
		if err != nil {
			continue
		}
		if frame.Type != protocol.TypeEchoResponse || frame.Source != client.Nonce() {
			continue
		}
		if frame.Target != protocol.TargetBroadcast && frame.Target != dev.Target {
			continue
		}
		if !bytes.Equal(frame.Payload, payload) {
			continue
		}
		return dg.ReceivedAt.Sub(sentAt), true
	}
	return 0, false
}

// rttStats returns the minimum, maximum, and mean of the samples.
func rttStats(rtts []time.Duration) (min, max, avg time.Duration) {
	min, max = rtts[0], rtts[0]
	var total time.Duration
	for _, rtt := range rtts {
		if rtt < min {
			min = rtt
		}
		if rtt > max {
			max = rtt
		}
		total += rtt
	}
	return min, max, total / time.Duration(len(rtts))
}

// buildHSBK validates the color flags and scales them to wire units.
func buildHSBK() (protocol.HSBK, error) {
	if colorHue < 0 || colorHue > 360 {
		return protocol.HSBK{}, fmt.Errorf("hue must be between 0 and 360 degrees, got %g", colorHue)
	}
	if colorSaturation < 0 || colorSaturation > 1 {
		return protocol.HSBK{}, fmt.Errorf("saturation must be between 0 and 1, got %g", colorSaturation)
	}
	if colorBrightness < 0 || colorBrightness > 1 {
		return protocol.HSBK{}, fmt.Errorf("brightness must be between 0 and 1, got %g", colorBrightness)
	}
	if colorKelvin < 1500 || colorKelvin > 9000 {
		return protocol.HSBK{}, fmt.Errorf("kelvin must be between 1500 and 9000, got %d", colorKelvin)
	}

	// 360° and 0° are the same angle; scale the rest onto the uint16 circle
	hue := uint16(colorHue / 360 * 65535)
	return protocol.HSBK{
		Hue:        hue,
		Saturation: uint16(colorSaturation * 65535),
		Brightness: uint16(colorBrightness * 65535),
		Kelvin:     uint16(colorKelvin),
	}, nil
}

// scanParams builds the header parameter map for the scan command.
func scanParams(registry *config.Registry, window time.Duration) map[string]string {
	addr := broadcastIP
	if addr == "" && registry.Preferences != nil {
		addr = registry.Preferences.BroadcastAddr
	}
	if addr == "" {
		addr = "255.255.255.255"
	}

	params := map[string]string{
		"Broadcast": fmt.Sprintf("%s:%d", addr, servicePort(registry)),
		"Window":    windowOrDefault(window).String(),
	}
	if withMDNS {
		params["mDNS"] = "enabled"
	}
	return params
}

// printDatagrams shows the raw replies in verbose mode.
func printDatagrams(dev *discovery.Device, datagrams []lan.Datagram) {
	if !lanVerbose {
		return
	}
	packets := ui.NewPacketLog()
	for _, dg := range datagrams {
		packets.AddReceive(dg.Addr.String(), dg.Data)
	}
	if packets.Empty() {
		packets.AddNote(fmt.Sprintf("no datagrams from %s", dev.IP))
	}
	ui.PrintPacketLog(packets)
}

// lanTroubleshooting is the default tip list for failed LAN operations.
func lanTroubleshooting() []string {
	return []string{
		"Check the bulb has power and shows up in the vendor app",
		"The bulb may have moved: run 'lifxctl scan' to refresh its address",
		"Try a longer reply window with --window",
		"Run with --verbose to see the raw datagrams",
	}
}

// cloudClient builds a cloud API client from the stored or environment
// token.
func cloudClient() (*cloud.Client, error) {
	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	token := os.Getenv("LIFXCTL_CLOUD_TOKEN")
	if token == "" {
		token = registry.CloudToken
	}
	if token == "" {
		return nil, fmt.Errorf("no cloud API token: run 'lifxctl cloud login' or set LIFXCTL_CLOUD_TOKEN")
	}

	return cloud.NewClient(token), nil
}

// cloudFailure renders a failed cloud call and returns the error.
func cloudFailure(title string, err error) error {
	tips := []string{
		"Check your network connection",
	}
	if cloud.IsAuthError(err) {
		tips = []string{
			"The token was rejected: run 'lifxctl cloud login' with a fresh one",
			"Tokens are managed in the vendor cloud account settings",
		}
	} else if cloud.IsRateLimitError(err) {
		tips = []string{
			"The API rate limit was hit: wait a minute and retry",
		}
	}
	ui.PrintFailure(title, err, tips)
	return err
}

// printCloudResults lists the per-device outcomes of a cloud state change.
func printCloudResults(results []cloud.Result) {
	okCount := 0
	for _, result := range results {
		marker := ui.FailureMarker
		if result.Status == "ok" {
			marker = ui.SuccessMarker
			okCount++
		}
		name := result.Label
		if name == "" {
			name = result.ID
		}
		fmt.Printf("  %s %s (%s)\n", marker, name, result.Status)
	}
	fmt.Printf("\n%d of %d lights updated\n", okCount, len(results))
}
