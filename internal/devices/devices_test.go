package devices

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

const pactlSample = "0\talsa_input.usb-mic.analog-stereo\tmodule-alsa-card.c\ts16le 2ch 48000Hz\tSUSPENDED\n" +
	"1\talsa_output.pci.analog-stereo.monitor\tmodule-alsa-card.c\ts16le 2ch 48000Hz\tRUNNING\n" +
	"garbage line\n" +
	"2\t\tmodule\n"

func TestParsePactlSources(t *testing.T) {
	inputs := parsePactlSources(pactlSample, "input")
	if len(inputs) != 1 || inputs[0].ID != "alsa_input.usb-mic.analog-stereo" {
		t.Fatalf("unexpected input devices %+v", inputs)
	}
	outputs := parsePactlSources(pactlSample, "output")
	if len(outputs) != 1 || outputs[0].ID != "alsa_output.pci.analog-stereo.monitor" {
		t.Fatalf("unexpected output devices %+v", outputs)
	}
	if outputs[0].Label != outputs[0].ID {
		t.Fatalf("expected label to equal id, got %+v", outputs[0])
	}
	if got := parsePactlSources("", "input"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func stubCommand(t *testing.T, script string) {
	t.Helper()
	prev := commandContext
	commandContext = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = prev })
}

func TestAudioDevicesRunsPactl(t *testing.T) {
	stubCommand(t, `printf '0\tmic\tm\n1\tspeakers.monitor\tm\n'`)
	got, err := NewLister(nil).AudioDevices(context.Background(), "input")
	if err != nil {
		t.Fatalf("AudioDevices: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mic" {
		t.Fatalf("unexpected devices %+v", got)
	}
}

func TestAudioDevicesEmptyWhenPactlFails(t *testing.T) {
	stubCommand(t, "exit 1")
	got, err := NewLister(nil).AudioDevices(context.Background(), "output")
	if err != nil {
		t.Fatalf("AudioDevices: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no devices, got %+v", got)
	}
}

func TestAudioDevicesMissingBinary(t *testing.T) {
	prev := commandContext
	commandContext = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, filepath.Join(t.TempDir(), "no-such-pactl"))
	}
	t.Cleanup(func() { commandContext = prev })

	if _, err := NewLister(nil).AudioDevices(context.Background(), "input"); err == nil {
		t.Fatal("expected error when pactl cannot run")
	}
}

func withVideoFixture(t *testing.T, crawl func(context.Context) ([]string, error)) string {
	t.Helper()
	dir := t.TempDir()
	prevDev, prevSys, prevCrawl := devDir, sysClassDir, crawlVideo
	devDir = filepath.Join(dir, "dev")
	sysClassDir = filepath.Join(dir, "sys")
	crawlVideo = crawl
	t.Cleanup(func() {
		devDir, sysClassDir, crawlVideo = prevDev, prevSys, prevCrawl
	})
	for _, name := range []string{"video2", "video0", "null"} {
		path := filepath.Join(devDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	nameFile := filepath.Join(sysClassDir, "video0", "name")
	if err := os.MkdirAll(filepath.Dir(nameFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(nameFile, []byte("USB Camera\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir
}

func TestVideoDevicesFallsBackToDeviceScan(t *testing.T) {
	withVideoFixture(t, func(context.Context) ([]string, error) {
		return nil, errors.New("no sysfs")
	})
	got, err := NewLister(nil).VideoDevices(context.Background())
	if err != nil {
		t.Fatalf("VideoDevices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two devices, got %+v", got)
	}
	if got[0].ID != filepath.Join(devDir, "video0") || got[0].Label != "USB Camera ("+got[0].ID+")" {
		t.Fatalf("unexpected first device %+v", got[0])
	}
	if got[1].ID != filepath.Join(devDir, "video2") || got[1].Label != got[1].ID {
		t.Fatalf("unexpected second device %+v", got[1])
	}
}

func TestVideoDevicesPrefersUdev(t *testing.T) {
	withVideoFixture(t, func(context.Context) ([]string, error) {
		return []string{"/dev/video9", "/dev/video9", "/dev/video4"}, nil
	})
	got, err := NewLister(nil).VideoDevices(context.Background())
	if err != nil {
		t.Fatalf("VideoDevices: %v", err)
	}
	if len(got) != 2 || got[0].ID != "/dev/video4" || got[1].ID != "/dev/video9" {
		t.Fatalf("unexpected devices %+v", got)
	}
}

func TestDeviceNode(t *testing.T) {
	prev := devDir
	devDir = "/dev"
	t.Cleanup(func() { devDir = prev })

	if got := deviceNode(map[string]string{"DEVNAME": "video0"}); got != "/dev/video0" {
		t.Fatalf("unexpected relative node %q", got)
	}
	if got := deviceNode(map[string]string{"DEVNAME": "/dev/video1"}); got != "/dev/video1" {
		t.Fatalf("unexpected absolute node %q", got)
	}
	if got := deviceNode(map[string]string{}); got != "" {
		t.Fatalf("expected empty node, got %q", got)
	}
}

func TestEventFromUEvent(t *testing.T) {
	evt, ok := eventFromUEvent(netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"DEVNAME": "/dev/video3", "SUBSYSTEM": "video4linux"},
	})
	if !ok || evt.Action != ActionAdded || evt.Device != "/dev/video3" {
		t.Fatalf("unexpected add event %+v %v", evt, ok)
	}
	evt, ok = eventFromUEvent(netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"DEVNAME": "/dev/video3"},
	})
	if !ok || evt.Action != ActionRemoved {
		t.Fatalf("unexpected remove event %+v %v", evt, ok)
	}
	if _, ok := eventFromUEvent(netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"DEVNAME": "/dev/video3"}}); ok {
		t.Fatal("change events should be ignored")
	}
	if _, ok := eventFromUEvent(netlink.UEvent{Action: netlink.ADD}); ok {
		t.Fatal("events without a device should be ignored")
	}
}

func TestMonitorNilSafety(t *testing.T) {
	var m *Monitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("nil monitor should not be running")
	}
	fresh := NewMonitor(nil, nil)
	fresh.Stop()
	if fresh.Running() {
		t.Fatal("unstarted monitor should not be running")
	}
}
