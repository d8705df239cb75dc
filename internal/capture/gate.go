package capture

import (
	"os"
	"path/filepath"

	"github.com/anstrom/reconkit/internal/platform"
)

// GateStatus reports whether the capture driver is present.
type GateStatus struct {
	Installed bool   `json:"installed"`
	Message   string `json:"message"`
}

// Gate is the precondition checked before listing interfaces or starting
// a capture.
type Gate interface {
	Check() GateStatus
}

// GateFunc adapts a function to Gate.
type GateFunc func() GateStatus

// Check calls f.
func (f GateFunc) Check() GateStatus {
	return f()
}

// DriverGate looks for the Npcap runtime on Windows. libpcap is assumed on
// every other platform.
type DriverGate struct {
	OS     platform.OS
	WinDir string
	Exists func(path string) bool
}

// NewDriverGate returns a gate for the running system.
func NewDriverGate() *DriverGate {
	winDir := os.Getenv("WINDIR")
	if winDir == "" {
		winDir = `C:\Windows`
	}
	return &DriverGate{
		OS:     platform.CurrentOS(),
		WinDir: winDir,
		Exists: fileExists,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Check implements Gate.
func (g *DriverGate) Check() GateStatus {
	if g.OS != platform.Windows {
		return GateStatus{Installed: true, Message: "libpcap available (non-Windows)."}
	}
	if g.npcapPresent() {
		return GateStatus{Installed: true, Message: "Npcap detected."}
	}
	return GateStatus{Message: "Npcap not detected. Install Npcap to enable packet capture."}
}

func (g *DriverGate) npcapPresent() bool {
	sys32 := filepath.Join(g.WinDir, "System32")
	npcap := filepath.Join(sys32, "Npcap")
	wow := filepath.Join(g.WinDir, "SysWOW64", "Npcap")
	drivers := filepath.Join(sys32, "drivers")

	for _, dir := range []string{npcap, wow} {
		if g.Exists(filepath.Join(dir, "wpcap.dll")) && g.Exists(filepath.Join(dir, "Packet.dll")) {
			return true
		}
	}
	for _, p := range []string{
		filepath.Join(drivers, "npcap.sys"),
		filepath.Join(drivers, "npf.sys"),
		filepath.Join(npcap, "wpcap.dll"),
		filepath.Join(npcap, "Packet.dll"),
		filepath.Join(wow, "wpcap.dll"),
		filepath.Join(wow, "Packet.dll"),
	} {
		if g.Exists(p) {
			return true
		}
	}
	return false
}
