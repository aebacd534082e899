package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	fileCreateDirs bool
	fileMode       uint32
	fileRecursive  bool
)

var readFileCmd = &cobra.Command{
	Use:   "read-file PATH",
	Short: "Read a file through the gateway's policy-gated file operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, cleanup, err := buildGateway()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := gw.ReadFile(args[0], nil)
		if err != nil {
			return err
		}
		os.Stdout.Write(result.Bytes)
		return nil
	},
}

var writeFileCmd = &cobra.Command{
	Use:   "write-file PATH",
	Short: "Write stdin to a file through the gateway's policy-gated file operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, cleanup, err := buildGateway()
		if err != nil {
			return err
		}
		defer cleanup()

		payload, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		result, err := gw.WriteFile(args[0], payload, fileCreateDirs, fileMode, nil)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", result.BytesWritten, result.Path)
		return nil
	},
}

var deleteFileCmd = &cobra.Command{
	Use:   "delete-file PATH",
	Short: "Delete a file through the gateway's policy-gated file operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, cleanup, err := buildGateway()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := gw.DeleteFile(args[0], fileRecursive, nil)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", result.Path)
		return nil
	},
}

func init() {
	writeFileCmd.Flags().BoolVar(&fileCreateDirs, "create-dirs", false, "Create parent directories if missing")
	writeFileCmd.Flags().Uint32Var(&fileMode, "mode", 0o644, "File mode for a newly created file")
	deleteFileCmd.Flags().BoolVar(&fileRecursive, "recursive", false, "Delete directories recursively")
}
