package network

import (
	"fmt"
	"os/exec"
)

// SetupLoopback sets up the loopback interface
func SetupLoopback() error {
	cmd := exec.Command("ip", "link", "set", "lo", "up")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to bring loopback up: %w", err)
	}
	return nil
}
