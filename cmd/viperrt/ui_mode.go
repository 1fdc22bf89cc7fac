package main

import (
	"fmt"
	"os"
	"strings"
)

// tristate is the auto|on|off value shared by --color and --ui.
type tristate string

const (
	modeAuto tristate = "auto"
	modeOn   tristate = "on"
	modeOff  tristate = "off"
)

func parseTristate(flag, value string) (tristate, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on":
		return modeOn, nil
	case "off":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// resolve turns auto into whether f is a terminal.
func (m tristate) resolve(f *os.File) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return isTerminal(f)
	}
}
