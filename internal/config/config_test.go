package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIDSet(t *testing.T) {
	ids := parseIDSet("123, 456 ,,789")
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "123")
	assert.Contains(t, ids, "456")
	assert.Contains(t, ids, "789")

	assert.Empty(t, parseIDSet(""))
}

func TestTrackingIsIgnored(t *testing.T) {
	tracking := TrackingConfig{IgnoredExternalIDs: parseIDSet("bot-1")}
	assert.True(t, tracking.IsIgnored("bot-1"))
	assert.False(t, tracking.IsIgnored("member-1"))
}

func TestReportCacheTTL(t *testing.T) {
	assert.Equal(t, 90*time.Second, TrackingConfig{ReportCacheTTLSec: 90}.ReportCacheTTL())
	assert.Zero(t, TrackingConfig{ReportCacheTTLSec: 0}.ReportCacheTTL())
	assert.Zero(t, TrackingConfig{ReportCacheTTLSec: -5}.ReportCacheTTL())
}
