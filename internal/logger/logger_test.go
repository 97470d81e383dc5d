package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithJSONStampsService(t *testing.T) {
	var buf bytes.Buffer
	l := NewWith(Options{Level: "debug", Format: "json", Output: &buf})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("job_id", 5).Debug("job cached")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "jobber", entry["service"])
	assert.Equal(t, "job cached", entry["msg"])
	assert.EqualValues(t, 5, entry["job_id"])
}

func TestNewWithFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWith(Options{Level: "chatty", Format: "text", Output: &buf})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("shown")
	assert.Contains(t, buf.String(), "service=jobber")
}
