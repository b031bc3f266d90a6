package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
)

var (
	// CommandContext allows overriding command creation for testing
	CommandContext = exec.CommandContext
	// LookPath allows overriding the lookup behavior for testing
	LookPath = exec.LookPath
	// LookupEnv allows overriding environment lookup for testing
	LookupEnv = os.LookupEnv
)

// ResolveSecretReference resolves a secret reference to its value.
//
// Supported references are 1Password references (op://vault/item/field),
// read with the op CLI, and environment references (env://NAME).
// Any other value is returned unchanged. The second result reports whether
// value was a reference.
func ResolveSecretReference(ctx context.Context, value string) (string, bool, error) {
	switch {
	case strings.HasPrefix(value, "op://"):
		secret, err := readOnePassword(ctx, value)
		return secret, true, err
	case strings.HasPrefix(value, "env://"):
		name := strings.TrimPrefix(value, "env://")
		if name == "" {
			return "", true, errors.New("environment reference is missing a variable name")
		}
		secret, ok := LookupEnv(name)
		if !ok {
			return "", true, fmt.Errorf("environment variable %s is not set", name)
		}
		return secret, true, nil
	default:
		return value, false, nil
	}
}

func readOnePassword(ctx context.Context, ref string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(ref, "op://"), "/")
	if len(parts) < 3 || slices.Contains(parts, "") {
		return "", fmt.Errorf("malformed 1Password reference %q: expected op://vault/item/field", ref)
	}

	if _, err := LookPath("op"); err != nil {
		return "", fmt.Errorf("1Password CLI (op) not found in PATH: %w", err)
	}

	cmd := CommandContext(ctx, "op", "read", ref)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to read secret from 1Password: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("failed to read secret from 1Password: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
