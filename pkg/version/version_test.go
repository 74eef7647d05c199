package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02", GoVersion: "go1.22", OS: "windows", Arch: "amd64"}

	assert.Equal(t, "nssmctl 1.2.0 (commit: abc123, built: 2026-01-02, go1.22, windows/amd64)", info.String())

	withNSSM := info.WithNSSM("  Version 2.24 64-bit, 2014-08-31\n")
	assert.Equal(t, "2.24 64-bit, 2014-08-31", withNSSM.NSSM)
	assert.Contains(t, withNSSM.String(), "\nnssm 2.24 64-bit, 2014-08-31")
	assert.Empty(t, info.NSSM)
}

func TestInfo_UserAgent(t *testing.T) {
	info := Info{Version: "1.2.0", OS: "windows", Arch: "amd64"}
	assert.Equal(t, "nssmctl/1.2.0 (windows/amd64)", info.UserAgent())
}
