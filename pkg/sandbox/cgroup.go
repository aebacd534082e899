package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

var cgroupLog = logger.New("sandbox.cgroup")

// cgroup represents a control group scoping one sandboxed task's resource
// consumption. Adapted from the teacher repo's standalone cgroup package;
// folded into sandbox and extended with an IOWeight limit since the
// teacher never wired one.
type cgroup struct {
	name   string
	parent string
}

const cgroupRoot = "/sys/fs/cgroup"

var cgroupControllers = []string{"memory", "cpu", "pids", "io"}

// newCgroup creates cgroup directories for taskID across all controllers
// and applies limits. On failure it best-effort removes what it created.
func newCgroup(taskID string, limits task.ResourceLimits) (*cgroup, error) {
	cg := &cgroup{name: taskID, parent: cgroupRoot}

	for _, controller := range cgroupControllers {
		path := filepath.Join(cg.parent, controller, cg.name)
		if err := os.MkdirAll(path, 0755); err != nil {
			cg.remove()
			return nil, errors.ErrInternal("failed to create cgroup directory", err).
				WithField("task_id", taskID).
				WithField("cgroup_path", path).
				WithHint("ensure the gateway runs with permission to create cgroups under /sys/fs/cgroup")
		}
	}

	if err := cg.applyLimits(limits); err != nil {
		cg.remove()
		return nil, errors.ErrInternal("failed to apply sandbox resource limits", err).
			WithField("task_id", taskID)
	}

	return cg, nil
}

func (c *cgroup) applyLimits(limits task.ResourceLimits) error {
	if limits.MemoryBytes > 0 {
		path := filepath.Join(c.parent, "memory", c.name, "memory.limit_in_bytes")
		if err := writeCgroupFile(path, strconv.FormatInt(limits.MemoryBytes, 10)); err != nil {
			path = filepath.Join(c.parent, "memory", c.name, "memory.max")
			if err := writeCgroupFile(path, strconv.FormatInt(limits.MemoryBytes, 10)); err != nil {
				return fmt.Errorf("failed to set memory limit: %w", err)
			}
		}
	}

	if limits.CPUCores > 0 {
		shares := int64(limits.CPUCores * 1024)
		path := filepath.Join(c.parent, "cpu", c.name, "cpu.shares")
		if err := writeCgroupFile(path, strconv.FormatInt(shares, 10)); err != nil {
			weight := (shares * 10000) / 1024
			path = filepath.Join(c.parent, "cpu", c.name, "cpu.weight")
			if err := writeCgroupFile(path, strconv.FormatInt(weight, 10)); err != nil {
				return fmt.Errorf("failed to set CPU shares: %w", err)
			}
		}
	}

	if limits.PIDCount > 0 {
		path := filepath.Join(c.parent, "pids", c.name, "pids.max")
		if err := writeCgroupFile(path, strconv.Itoa(limits.PIDCount)); err != nil {
			return fmt.Errorf("failed to set PID limit: %w", err)
		}
	}

	if limits.IOWeight > 0 {
		path := filepath.Join(c.parent, "io", c.name, "io.weight")
		if err := writeCgroupFile(path, strconv.Itoa(limits.IOWeight)); err != nil {
			path = filepath.Join(c.parent, "io", c.name, "blkio.weight")
			if err := writeCgroupFile(path, strconv.Itoa(limits.IOWeight)); err != nil {
				cgroupLog.WithField("task_id", c.name).Debug("io weight limit unsupported by this host, skipping")
			}
		}
	}

	return nil
}

// addProcess moves pid into every controller's cgroup.
func (c *cgroup) addProcess(pid int) error {
	for _, controller := range cgroupControllers {
		path := filepath.Join(c.parent, controller, c.name, "cgroup.procs")
		if err := writeCgroupFile(path, strconv.Itoa(pid)); err != nil {
			return errors.ErrInternal("failed to add process to cgroup", err).
				WithField("task_id", c.name).
				WithField("pid", pid).
				WithField("controller", controller)
		}
	}
	return nil
}

func (c *cgroup) addCurrentProcess() error {
	return c.addProcess(syscall.Getpid())
}

// remove tears down the cgroup's directories. Best-effort: callers only
// log failures, since a lingering empty cgroup directory is harmless.
func (c *cgroup) remove() {
	for _, controller := range cgroupControllers {
		path := filepath.Join(c.parent, controller, c.name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			cgroupLog.WithError(err).WithField("task_id", c.name).Warn("failed to remove cgroup path")
		}
	}
}

// usage reads the current resource counters for this cgroup, used to
// populate task.ResourceUsage after a child exits.
func (c *cgroup) usage() task.ResourceUsage {
	var u task.ResourceUsage

	memPath := filepath.Join(c.parent, "memory", c.name, "memory.usage_in_bytes")
	data, err := os.ReadFile(memPath)
	if err != nil {
		memPath = filepath.Join(c.parent, "memory", c.name, "memory.current")
		data, err = os.ReadFile(memPath)
	}
	if err == nil {
		if v, perr := strconv.ParseInt(trimNewline(data), 10, 64); perr == nil {
			u.MaxMemoryUsed = v
		}
	}

	pidsPath := filepath.Join(c.parent, "pids", c.name, "pids.current")
	if data, err := os.ReadFile(pidsPath); err == nil {
		if v, perr := strconv.Atoi(trimNewline(data)); perr == nil {
			u.PIDsUsed = v
		}
	}

	return u
}

func trimNewline(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return string(b)
}

func writeCgroupFile(path, data string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(data)
	return err
}
