// Package directory resolves lab-system logins for students via the
// institutional user directory.
package directory

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Entry is one directory record: a login and the display name it belongs to.
type Entry struct {
	Login       string
	DisplayName string
}

// Resolver looks up directory entries for a normalized full name.
type Resolver interface {
	Resolve(ctx context.Context, normalizedName string) ([]Entry, error)
}

// FingerResolver queries the lab user directory through the finger command.
type FingerResolver struct{}

// Resolve runs finger for the given name and parses the matching entries.
// Names never seen by the directory yield an empty slice, not an error.
func (FingerResolver) Resolve(ctx context.Context, normalizedName string) ([]Entry, error) {
	cmd := exec.CommandContext(ctx, "finger", normalizedName)
	output, err := cmd.Output()
	if err != nil {
		// finger exits non-zero when no user matches; treat that as no entries.
		if _, ok := err.(*exec.ExitError); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("run finger: %w", err)
	}
	return parseFingerOutput(string(output)), nil
}

func parseFingerOutput(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		loginIdx := strings.Index(line, "Login: ")
		nameIdx := strings.Index(line, "Name: ")
		if loginIdx < 0 || nameIdx < 0 || nameIdx <= loginIdx {
			continue
		}
		fields := strings.Fields(line[loginIdx+len("Login: "):])
		if len(fields) == 0 {
			continue
		}
		login := fields[0]
		name := strings.TrimSpace(line[nameIdx+len("Name: "):])
		entries = append(entries, Entry{Login: login, DisplayName: name})
	}
	return entries
}
