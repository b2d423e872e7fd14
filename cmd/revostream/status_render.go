package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
	// statusLive marks an output that is currently recording or on air.
	statusLive
)

var statusKinds = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
	statusLive:  {"LIVE", text.Colors{text.FgHiRed, text.Bold}},
}

const statusLabelWidth = 18

// renderStatusLine formats "  Label:  [KIND] message". Only the bracketed
// kind is colored so the message stays readable on any background.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusKinds[kind]
	if !ok {
		style = statusKinds[statusInfo]
	}
	badge := "[" + style.label + "]"
	if colorize {
		badge = style.colors.Sprint(badge)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)
	if message = strings.TrimSpace(message); message != "" {
		line += " " + message
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("─", len([]rune(title)))
	if colorize {
		bold := text.Colors{text.Bold}
		return []string{bold.Sprint(title), bold.Sprint(rule)}
	}
	return []string{title, rule}
}
