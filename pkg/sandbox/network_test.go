package sandbox

import (
	"testing"

	"github.com/fcchi/mcp-security-gateway/pkg/network"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

func TestNetworkModeFor(t *testing.T) {
	cases := []struct {
		access task.NetworkAccess
		want   network.NetworkMode
	}{
		{task.NetworkHost, network.NetworkModeHost},
		{task.NetworkNone, network.NetworkModeNone},
		{task.NetworkRestricted, network.NetworkModeNone},
	}
	for _, c := range cases {
		if got := networkModeFor(c.access); got != c.want {
			t.Errorf("networkModeFor(%s) = %s, want %s", c.access, got, c.want)
		}
	}
}
