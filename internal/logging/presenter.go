// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"pgpane/cli/internal/errors"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatError renders err as a titled block with a hint for the user. It is
// used by the CLI, where there is no status line to put the message in.
func FormatError(err error) string {
	e := errors.As(err)
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title(e.Kind)))
	b.WriteString("\n")
	b.WriteString(Mask(e.Message))
	b.WriteString("\n")

	if h := hint(e.Kind); h != "" {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ " + h))
		b.WriteString("\n")
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(e.Err.Error())))
		b.WriteString("\n")
	}
	return b.String()
}

func title(k errors.Kind) string {
	switch k {
	case errors.ConnectionError:
		return "Connection failed"
	case errors.Cancelled:
		return "Cancelled"
	case errors.MissingArgument, errors.UnknownCommand:
		return "Invalid command"
	case errors.InvalidConfig, errors.InvalidEndpoint:
		return "Invalid configuration"
	case errors.SecretStore:
		return "Keychain unavailable"
	case errors.Output:
		return "Could not write output"
	default:
		return "Error"
	}
}

func hint(k errors.Kind) string {
	switch k {
	case errors.ConnectionError:
		return "Check the server address, credentials and network, then reconnect"
	case errors.UnknownCommand, errors.MissingArgument:
		return `Type \? for the list of commands`
	case errors.SecretStore:
		return "Pass the password with -P or PGPANE_PASSWORD instead"
	default:
		return ""
	}
}
