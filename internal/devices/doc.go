// Package devices enumerates the capture devices offered to source pickers and
// watches for video devices being plugged in or removed.
package devices
