// Package scanning provides the host discovery and TCP port scan engines.
//
// # Overview
//
// Both engines are instance handles built on the same skeleton: a Lifecycle
// guard that admits one run at a time, and a fixed pool of workers pulling
// work units from a shared atomic cursor. Start validates its input
// synchronously, claims the guard and returns a run ID; results stream to an
// events.Sink as the run progresses.
//
// # Host discovery
//
// HostScanner expands a CIDR block, emits hosts this machine and its
// neighbor cache already know about, then probes each remaining address with
// a ping followed by a neighbor lookup. In deep mode an address with no
// neighbor entry is still reported when a name resolves or one of a few
// common TCP ports accepts a connection. That check is a heuristic and can
// miss firewalled hosts. Blocks larger than the configured host cap end
// immediately with ip_scan_stopped.
//
// # Port scanning
//
// PortScanner resolves the target once, then connects to each port with a
// timeout clamped to the configured bounds.
//
// # Cancellation
//
// Stop cancels the run's context. Workers check it before each unit, units
// already in flight finish, and Stop returns once the pool has drained and
// the run's stopped event has been emitted. Stop on an idle engine does
// nothing. Each identity (IP or port) is emitted at most once per run.
package scanning
