package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/dissect"
	"github.com/anstrom/reconkit/internal/events"
)

var (
	captureInterface string
	captureProtocols protocolList
	captureFilter    string
	captureJSON      bool
)

// protocolList is a comma separated list of capture protocol names.
// Unknown names are rejected when the flag is parsed.
type protocolList []string

var _ pflag.Value = (*protocolList)(nil)

func (p *protocolList) String() string { return strings.Join(*p, ",") }

// Set appends the names in value; repeated flags accumulate.
func (p *protocolList) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !capture.KnownProtocol(name) {
			return fmt.Errorf("unknown protocol %q (want tcp, udp, icmp, arp or dns)", name)
		}
		*p = append(*p, name)
	}
	return nil
}

func (p *protocolList) Type() string { return "protocols" }

// captureCmd groups the packet capture commands.
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture and dissect packets",
	Long: `Capture frames from a network interface and print a one-line summary
of each. The native capture library is used when available; tshark is used
as a fallback.`,
}

// captureInterfacesCmd represents the capture interfaces command.
var captureInterfacesCmd = &cobra.Command{
	Use:     "interfaces",
	Short:   "List capturable interfaces",
	Example: `  reconkit capture interfaces`,
	Args:    cobra.NoArgs,
	RunE:    runCaptureInterfaces,
}

// captureStartCmd represents the capture start command.
var captureStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Capture packets until interrupted",
	Example: `  reconkit capture start
  reconkit capture start --interface eth0 --protocols tcp,dns
  reconkit capture start -i en0 --filter "port 53" --json`,
	Args: cobra.NoArgs,
	RunE: runCaptureStart,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.AddCommand(captureInterfacesCmd)
	captureCmd.AddCommand(captureStartCmd)

	captureStartCmd.Flags().StringVarP(&captureInterface, "interface", "i", "", "interface to capture on (default device when empty)")
	captureStartCmd.Flags().Var(&captureProtocols, "protocols", "protocols to keep: tcp, udp, icmp, arp, dns")
	captureStartCmd.Flags().StringVar(&captureFilter, "filter", "", "additional BPF filter expression")
	captureStartCmd.Flags().BoolVar(&captureJSON, "json", false, "print events as JSON lines")
}

func runCaptureInterfaces(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	engine := capture.NewEngine(events.SinkFunc(func(events.Event) {}), cfg.Capture, logger, nil)
	list, err := engine.ListInterfaces(cmd.Context())
	if err != nil {
		return err
	}
	return renderInterfaces(cmd.OutOrStdout(), list)
}

func runCaptureStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	hub := events.NewHub(cfg.API.EventBuffer)
	defer hub.Close()
	sub := hub.Subscribe(events.TopicCapture)
	defer sub.Close()

	engine := capture.NewEngine(hub, cfg.Capture, logger, nil)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	runID, err := engine.Start(ctx, capture.StartRequest{
		Interface: captureInterface,
		Protocols: captureProtocols,
		Filter:    captureFilter,
	})
	if err != nil {
		return err
	}
	logger.WithRunID(runID).Debug("Capture accepted", "interface", captureInterface)

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			if err := engine.Stop(cmd.Context()); err != nil {
				return fmt.Errorf("failed to stop capture: %w", err)
			}
			return nil
		case e, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := printCaptureEvent(out, e, captureJSON); err != nil {
				return err
			}
			if e.Kind == events.CaptureStopped {
				return nil
			}
		}
	}
}

// printCaptureEvent writes one capture event as text or as a JSON line.
func printCaptureEvent(w io.Writer, e events.Event, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var err error
	switch data := e.Data.(type) {
	case dissect.FrameSummary:
		_, err = fmt.Fprintf(w, "%s  %-8s %s -> %s  len=%d  %s\n",
			data.Time, data.Protocol, data.Src, data.Dest, data.Length, data.Info)
	case events.Message:
		_, err = fmt.Fprintf(w, "[%s] %s\n", e.Kind, data.Message)
	default:
		_, err = fmt.Fprintf(w, "[%s]\n", e.Kind)
	}
	return err
}

// renderInterfaces prints the interface list.
func renderInterfaces(w io.Writer, list []capture.Interface) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Description")
	for _, iface := range list {
		if err := table.Append([]string{iface.Name, iface.Description}); err != nil {
			return err
		}
	}
	return table.Render()
}
