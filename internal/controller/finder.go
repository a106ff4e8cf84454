package controller

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
)

// DefaultPort returns the platform's conventional first serial adapter
func DefaultPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM1"
	case "darwin":
		return "/dev/tty.usbserial"
	default:
		return "/dev/ttyUSB0"
	}
}

// FindPort locates the serial adapter. The preferred port wins when it exists,
// otherwise common USB serial device patterns are scanned.
func FindPort(preferred string) (string, error) {
	if preferred != "" {
		if runtime.GOOS == "windows" {
			// COM ports are not files; trust the configuration
			return preferred, nil
		}
		if _, err := os.Stat(preferred); err == nil {
			return preferred, nil
		}
	}

	if runtime.GOOS == "windows" {
		return DefaultPort(), nil
	}

	patterns := []string{
		"/dev/ttyUSB*",
		"/dev/ttyACM*",
		"/dev/tty.usbserial*",
		"/dev/tty.usbmodem*",
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		return matches[0], nil
	}

	if preferred != "" {
		return "", fmt.Errorf("serial port %s not found and no USB serial adapter detected", preferred)
	}
	return "", fmt.Errorf("no USB serial adapter detected, please specify the port in config")
}
