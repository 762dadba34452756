package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/config"
)

var validate = validator.New()

// readInput decodes the JSON file at path ("-" reads stdin) into dst and
// validates it.
func readInput(cmd *cobra.Command, path string, dst any) error {
	var (
		blob []byte
		err  error
	)
	if path == "-" {
		blob, err = io.ReadAll(cmd.InOrStdin())
	} else {
		blob, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input %s: %w", path, err)
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return fmt.Errorf("parse input %s: %w", path, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func addInputFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "input", "i", "", "Path to input JSON file, or - for stdin (required)")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
}
