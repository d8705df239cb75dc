package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/netaddr"
	"github.com/anstrom/reconkit/internal/platform"
	"github.com/anstrom/reconkit/internal/scanning"
)

var (
	ipScanDeep    bool
	ipScanQuiet   bool
	portScanPorts string
	portTimeoutMS int
	portScanQuiet bool
)

// ipScanCmd represents the ipscan command.
var ipScanCmd = &cobra.Command{
	Use:   "ipscan SUBNET",
	Short: "Discover live hosts on an IPv4 subnet",
	Long: `Sweep an IPv4 subnet for live hosts. Hosts are found through the local
interface addresses, the neighbor table and an ICMP echo to every address.
Deep mode adds a TCP liveness check and reverse name lookups.`,
	Example: `  reconkit ipscan 192.168.1.0/24
  reconkit ipscan 10.0.0.0/25 --deep`,
	Args: cobra.ExactArgs(1),
	RunE: runIPScan,
}

// portScanCmd represents the portscan command.
var portScanCmd = &cobra.Command{
	Use:   "portscan TARGET",
	Short: "Probe TCP ports on one target",
	Long: `Run a TCP connect scan against a single IP address or host name and
list the ports that accepted a connection.`,
	Example: `  reconkit portscan 192.168.1.10
  reconkit portscan router.local --ports 22,80,443 --timeout 500`,
	Args: cobra.ExactArgs(1),
	RunE: runPortScan,
}

func init() {
	rootCmd.AddCommand(ipScanCmd)
	rootCmd.AddCommand(portScanCmd)

	ipScanCmd.Flags().BoolVar(&ipScanDeep, "deep", false, "add TCP liveness checks and hostname lookups")
	ipScanCmd.Flags().BoolVarP(&ipScanQuiet, "quiet", "q", false, "do not print progress")

	portScanCmd.Flags().StringVarP(&portScanPorts, "ports", "p", "1-1024", "ports to scan: '80,443', '1-1000' or a mix")
	portScanCmd.Flags().IntVar(&portTimeoutMS, "timeout", 0, "connect timeout in milliseconds (0 = config default)")
	portScanCmd.Flags().BoolVarP(&portScanQuiet, "quiet", "q", false, "do not print progress")
}

func runIPScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	var progress io.Writer
	if !ipScanQuiet {
		progress = cmd.ErrOrStderr()
	}
	collector := newRunCollector(progress)
	engines := newEngines(cfg, collector, logger, nil)

	runID, err := engines.hosts.Start(scanning.HostScanRequest{Subnet: strings.TrimSpace(args[0]), Deep: ipScanDeep})
	if err != nil {
		return err
	}
	logger.WithRunID(runID).Debug("Host scan accepted", "subnet", args[0])

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	final, err := collector.wait(ctx, engines.hosts.Stop, cfg.API.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("failed to stop host scan: %w", err)
	}

	hosts := collector.hostResults()
	if err := renderHosts(cmd.OutOrStdout(), hosts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d host(s) found%s\n", len(hosts), stoppedSuffix(final))
	return nil
}

func runPortScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	var progress io.Writer
	if !portScanQuiet {
		progress = cmd.ErrOrStderr()
	}
	collector := newRunCollector(progress)
	engines := newEngines(cfg, collector, logger, nil)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	target := strings.TrimSpace(args[0])
	runID, err := engines.ports.Start(ctx, scanning.PortScanRequest{
		Target:    target,
		Ports:     portScanPorts,
		TimeoutMS: portTimeoutMS,
	})
	if err != nil {
		return err
	}
	logger.WithRunID(runID).Debug("Port scan accepted", "target", target)

	final, err := collector.wait(ctx, engines.ports.Stop, cfg.API.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("failed to stop port scan: %w", err)
	}

	ports := collector.portResults()
	if err := renderPorts(cmd.OutOrStdout(), target, ports); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d open port(s)%s\n", len(ports), stoppedSuffix(final))
	return nil
}

func stoppedSuffix(final events.Event) string {
	if final.Kind == events.IPScanStopped || final.Kind == events.PortScanStopped {
		return " (stopped)"
	}
	return ""
}

// renderHosts prints hosts sorted by address.
func renderHosts(w io.Writer, hosts []platform.HostRecord) error {
	sort.Slice(hosts, func(i, j int) bool {
		a, _ := netaddr.ParseIPv4(hosts[i].IP)
		b, _ := netaddr.ParseIPv4(hosts[j].IP)
		return a < b
	})

	table := tablewriter.NewWriter(w)
	table.Header("IP", "MAC", "Hostname", "Vendor")
	for _, h := range hosts {
		if err := table.Append([]string{h.IP, h.MAC, h.Hostname, h.Vendor}); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderPorts prints open ports in ascending order.
func renderPorts(w io.Writer, target string, ports []uint16) error {
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })

	table := tablewriter.NewWriter(w)
	table.Header("Target", "Port", "State")
	for _, p := range ports {
		if err := table.Append([]string{target, strconv.Itoa(int(p)), "open"}); err != nil {
			return err
		}
	}
	return table.Render()
}
