package network

import (
	"fmt"

	"github.com/fcchi/mcp-security-gateway/pkg/logger"
)

// NetworkMode represents the network isolation mode a sandboxed task runs
// under. The gateway sandboxes one command against the host's existing
// network stack at a time -- it has no bridge/NAT plane of its own -- so
// only the two modes a SandboxSpec's network_access actually reaches are
// modeled here.
type NetworkMode string

const (
	// NetworkModeNone - isolated network namespace, loopback only
	NetworkModeNone NetworkMode = "none"
	// NetworkModeHost - no network namespace, full host network
	NetworkModeHost NetworkMode = "host"
)

// SetupNetworkForMode sets up networking based on the specified mode.
func SetupNetworkForMode(mode NetworkMode) error {
	log := logger.New("network-mode")
	log.Infof("Setting up network for mode: %s", mode)

	switch mode {
	case NetworkModeNone:
		// Just bring up loopback
		log.Debug("Setting up loopback only (network mode: none)")
		return SetupLoopback()

	case NetworkModeHost:
		// Nothing to do - using host network
		log.Debug("Using host network - no setup needed")
		return nil

	default:
		return fmt.Errorf("unsupported network mode: %s", mode)
	}
}
