package network

import (
	"os"
	"testing"
)

func TestSetupNetworkForModeHostIsNoop(t *testing.T) {
	if err := SetupNetworkForMode(NetworkModeHost); err != nil {
		t.Fatalf("SetupNetworkForMode(host) = %v, want nil", err)
	}
}

func TestSetupNetworkForModeNoneBringsUpLoopback(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("Skipping test that requires root privileges")
	}
	if err := SetupNetworkForMode(NetworkModeNone); err != nil {
		t.Logf("SetupNetworkForMode(none) failed: %v", err)
	}
}

func TestSetupNetworkForModeUnknown(t *testing.T) {
	if err := SetupNetworkForMode(NetworkMode("bridge")); err == nil {
		t.Fatal("expected error for unsupported network mode")
	}
}
