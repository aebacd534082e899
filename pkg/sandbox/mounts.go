package sandbox

import (
	"os"
	"strings"
	"syscall"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
)

// applyBindings binds rw and ro paths into the (already unshared) mount
// namespace, then masks denied paths, in the order §3 requires: "denied
// overrides ro overrides rw on conflict." Adapted from the teacher's
// pkg/rootfs bind-mount helpers, generalized from "mount one rootfs" to
// "bind the rw_paths/ro_paths/denied_paths a SandboxSpec enumerates."
func applyBindings(rw, ro []Binding, denied []string) error {
	for _, b := range rw {
		if err := bindPath(b.Path, false); err != nil {
			return errors.ErrInternal("failed to bind rw path", err).WithField("path", b.Path)
		}
	}
	for _, b := range ro {
		if err := bindPath(b.Path, true); err != nil {
			return errors.ErrInternal("failed to bind ro path", err).WithField("path", b.Path)
		}
	}
	for _, p := range denied {
		if err := denyPath(p); err != nil {
			return errors.ErrInternal("failed to mask denied path", err).WithField("path", p)
		}
	}
	return nil
}

// bindPath bind-mounts path onto itself inside the mount namespace and,
// for ro bindings, remounts it read-only. Binding a path onto itself
// (rather than into a separate rootfs) keeps the executor's model simple:
// the sandboxed child sees the same absolute paths the task declared.
func bindPath(path string, readOnly bool) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := syscall.Mount(path, path, "", syscall.MS_BIND|syscall.MS_REC, ""); err != nil {
		return err
	}
	if readOnly {
		flags := uintptr(syscall.MS_BIND | syscall.MS_REMOUNT | syscall.MS_RDONLY)
		if err := syscall.Mount(path, path, "", flags, ""); err != nil {
			return err
		}
	}
	return nil
}

// denyPath makes path inaccessible inside the mount namespace by binding
// an empty, permission-less directory over it. Binding rather than
// unmounting avoids tearing down mounts the host still needs outside this
// namespace.
func denyPath(path string) error {
	if path == "" || path == "/" {
		return errors.ErrInvalidArgument("refusing to mask the root path")
	}
	maskDir, err := os.MkdirTemp("", "gateway-denied-*")
	if err != nil {
		return err
	}
	if err := os.Chmod(maskDir, 0); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		// Nothing to mask if the path does not exist in this namespace.
		return nil
	}
	return syscall.Mount(maskDir, path, "", syscall.MS_BIND, "")
}

// validatePaths checks that every rw/ro/denied path is absolute and
// normalized, per §4.3 step 1.
func validatePaths(paths ...string) error {
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return errors.ErrInvalidArgument("sandbox path must be absolute: " + p)
		}
		if cleaned := cleanPath(p); cleaned != p {
			return errors.ErrInvalidArgument("sandbox path must be normalized: " + p)
		}
	}
	return nil
}

func cleanPath(p string) string {
	segments := strings.Split(p, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/")
}
