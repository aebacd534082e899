package orchestrator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/policy"
)

// FileResult is the outcome of a direct file operation. Unlike Command
// tasks, file operations run synchronously against the host filesystem
// (no sandboxed child) once policy allows them, per SPEC_FULL §6's
// "File task execution" supplement.
type FileResult struct {
	Path         string
	Bytes        []byte
	BytesWritten int64
	Success      bool
}

// ReadFile evaluates file policy for a read and, if allowed, returns the
// file's contents.
func (g *Gateway) ReadFile(path string, metadata map[string]string) (FileResult, error) {
	clean, err := canonicalPath(path)
	if err != nil {
		return FileResult{}, err
	}
	if err := g.evaluateFilePolicy(clean, policy.FileModeRead, metadata); err != nil {
		return FileResult{}, err
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return FileResult{}, errors.ErrInternal("failed to read file", err).WithField("path", clean)
	}
	return FileResult{Path: clean, Bytes: data}, nil
}

// WriteFile evaluates file policy for a write and, if allowed, writes
// payload to path, optionally creating parent directories.
func (g *Gateway) WriteFile(path string, payload []byte, createDirs bool, mode uint32, metadata map[string]string) (FileResult, error) {
	clean, err := canonicalPath(path)
	if err != nil {
		return FileResult{}, err
	}
	if err := g.evaluateFilePolicy(clean, policy.FileModeWrite, metadata); err != nil {
		return FileResult{}, err
	}
	if createDirs {
		if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
			return FileResult{}, errors.ErrInternal("failed to create parent directories", err).WithField("path", clean)
		}
	}
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(clean, payload, os.FileMode(mode)); err != nil {
		return FileResult{}, errors.ErrInternal("failed to write file", err).WithField("path", clean)
	}
	return FileResult{Path: clean, BytesWritten: int64(len(payload))}, nil
}

// DeleteFile evaluates file policy for a delete (treated as a write for
// policy purposes, since the rule language has no separate delete mode)
// and, if allowed, removes path.
func (g *Gateway) DeleteFile(path string, recursive bool, metadata map[string]string) (FileResult, error) {
	clean, err := canonicalPath(path)
	if err != nil {
		return FileResult{}, err
	}
	if err := g.evaluateFilePolicy(clean, policy.FileModeWrite, metadata); err != nil {
		return FileResult{}, err
	}

	var removeErr error
	if recursive {
		removeErr = os.RemoveAll(clean)
	} else {
		removeErr = os.Remove(clean)
	}
	if removeErr != nil {
		return FileResult{}, errors.ErrInternal("failed to delete file", removeErr).WithField("path", clean)
	}
	return FileResult{Path: clean, Success: true}, nil
}

func (g *Gateway) evaluateFilePolicy(path string, mode policy.FileMode, metadata map[string]string) error {
	input := policy.Input{
		File: &policy.FileInput{Path: path, Mode: mode},
		User: policy.UserInput{Roles: callerRoles(metadata)},
	}
	decision, err := g.engine.Evaluate(input)
	if err != nil {
		return errors.ErrInternal("policy evaluation failed", err)
	}
	g.auditor.LogIfWarned("file:"+path, callerUser(metadata), decision, metadata)
	if !decision.Allow {
		return errors.ErrPermissionDenied(strings.Join(decision.DenyReasons, "; "))
	}
	return nil
}

// canonicalPath requires an absolute path and rejects one that is not
// already in normalized form, mirroring the sandbox's own path
// canonicalization rule (§4.3 step 1) so file-task paths and sandboxed
// command paths are judged by the same standard.
func canonicalPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", errors.ErrInvalidArgument("path must be absolute: " + path)
	}
	cleaned := filepath.Clean(path)
	if cleaned != path {
		return "", errors.ErrInvalidArgument("path '" + path + "' is not a canonical absolute path")
	}
	return cleaned, nil
}
