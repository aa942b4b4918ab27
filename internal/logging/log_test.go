// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgpane/cli/internal/errors"
)

func TestConfigure(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)

	file := filepath.Join(t.TempDir(), "logs", "pgpane.log")
	c, err := Config{Format: "json", Level: "debug", File: file}.Configure()
	require.NoError(t, err)
	defer c.Close()

	log.WithField("sql", "select 1").Debug("executing")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sql":"select 1"`)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestConfigure_Invalid(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	_, err := Config{Format: "xml"}.Configure()
	assert.True(t, errors.Is(err, errors.InvalidConfig))

	_, err = Config{Level: "loud"}.Configure()
	assert.True(t, errors.Is(err, errors.InvalidConfig))
}
