package devices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"

	"revostream/internal/logging"
)

// Device is one selectable capture device.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const videoSubsystem = "video4linux"

var (
	commandContext = exec.CommandContext
	crawlVideo     = crawlVideoNodes
	devDir         = "/dev"
	sysClassDir    = "/sys/class/video4linux"
)

// Lister enumerates capture devices on the host.
type Lister struct {
	logger *slog.Logger
}

// NewLister returns a Lister that logs through logger.
func NewLister(logger *slog.Logger) *Lister {
	return &Lister{logger: logging.NewComponentLogger(logger, "devices")}
}

// VideoDevices lists V4L2 device nodes, sorted by path. udev is asked first;
// when it yields nothing the device directory is scanned for video* nodes.
func (l *Lister) VideoDevices(ctx context.Context) ([]Device, error) {
	nodes, err := crawlVideo(ctx)
	if err != nil {
		l.logger.Debug("udev crawl unavailable, scanning device directory",
			logging.Error(err),
			logging.String("dir", devDir),
		)
	}
	if len(nodes) == 0 {
		nodes = scanVideoNodes()
	}
	seen := make(map[string]bool, len(nodes))
	out := make([]Device, 0, len(nodes))
	for _, node := range nodes {
		if node == "" || seen[node] {
			continue
		}
		seen[node] = true
		out = append(out, Device{ID: node, Label: videoLabel(node)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// crawlVideoNodes walks the udev device tree for video4linux nodes.
func crawlVideoNodes(ctx context.Context) ([]string, error) {
	subsystem := videoSubsystem
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{"SUBSYSTEM": subsystem},
	})
	if err := rules.Compile(); err != nil {
		return nil, fmt.Errorf("compile udev rules: %w", err)
	}

	queue := make(chan crawler.Device)
	errs := make(chan error, 1)
	quit := crawler.ExistingDevices(queue, errs, rules)

	var nodes []string
	for {
		select {
		case <-ctx.Done():
			close(quit)
			return nodes, ctx.Err()
		case err := <-errs:
			return nodes, err
		case dev, ok := <-queue:
			if !ok {
				return nodes, nil
			}
			if node := deviceNode(dev.Env); node != "" {
				nodes = append(nodes, node)
			}
		}
	}
}

// deviceNode returns the /dev path named by a udev environment.
func deviceNode(env map[string]string) string {
	name := strings.TrimSpace(env["DEVNAME"])
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(devDir, name)
}

func scanVideoNodes() []string {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil
	}
	var nodes []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "video") {
			nodes = append(nodes, filepath.Join(devDir, entry.Name()))
		}
	}
	return nodes
}

// videoLabel prefers the driver-reported card name.
func videoLabel(node string) string {
	raw, err := os.ReadFile(filepath.Join(sysClassDir, filepath.Base(node), "name"))
	if err != nil {
		return node
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return node
	}
	return fmt.Sprintf("%s (%s)", name, node)
}

// AudioDevices lists PulseAudio sources. kind "output" keeps the monitor
// sources used for desktop capture; any other kind excludes them. A pactl that
// runs and fails yields an empty list.
func (l *Lister) AudioDevices(ctx context.Context, kind string) ([]Device, error) {
	cmd := commandContext(ctx, "pactl", "list", "short", "sources")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logging.WarnWithContext(l.logger, "pactl returned an error", "pactl_failed",
				logging.Int("exit_code", exitErr.ExitCode()),
				logging.String(logging.FieldErrorHint, "check that the PulseAudio or PipeWire server is running"),
				logging.String(logging.FieldImpact, "audio device list is empty"),
			)
			return []Device{}, nil
		}
		return nil, fmt.Errorf("failed to run pactl: %w", err)
	}
	return parsePactlSources(stdout.String(), kind), nil
}

func parsePactlSources(text, kind string) []Device {
	wantMonitor := strings.TrimSpace(kind) == "output"
	out := []Device{}
	for line := range strings.Lines(text) {
		cols := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
		if len(cols) < 2 {
			continue
		}
		name := strings.TrimSpace(cols[1])
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, ".monitor") != wantMonitor {
			continue
		}
		out = append(out, Device{ID: name, Label: name})
	}
	return out
}
