package config

import "github.com/fcchi/mcp-security-gateway/pkg/errors"

func errConfig(message string) error {
	return errors.ErrConfig(message)
}
