package main

import (
	"os"
	"path/filepath"
	"strings"
)

// programFileName names a program file for a machine.
func programFileName(machineID, ext string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, machineID)
	if id == "" {
		id = "_"
	}
	return "warmup_machine_" + id + ext
}

// writeProgram writes text to dir/name, creating dir as needed, and
// returns the full path.
func writeProgram(dir, name, text string) (string, error) {
	if dir == "" {
		dir = "."
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}
	full := filepath.Join(dir, name)
	err = os.WriteFile(full, []byte(text), 0644)
	if err != nil {
		return "", err
	}
	return full, nil
}
