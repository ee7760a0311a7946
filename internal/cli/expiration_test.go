package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiration(t *testing.T) {
	res := execute(t, testToday, "expiration", fixture(t, "bulletin_c.txt"))
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "EXPIRATION_DATE=2457933 # 28 Jun 2017\n", res.out)
}

func TestExpirationJSON(t *testing.T) {
	res := execute(t, testToday, "--format", "json", "expiration", fixture(t, "bulletin_c.txt"))
	require.Equal(t, ExitSuccess, res.code, res.err)

	var resp struct {
		Data ExpirationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	assert.Equal(t, "52", resp.Data.Bulletin)
	assert.Equal(t, 2457933, resp.Data.Expiration)
	assert.Equal(t, "2017-06-28", resp.Data.Date)
	assert.Equal(t, "2016-12-31", resp.Data.Leap)
	assert.Equal(t, 1, resp.Data.Sign)
}

func TestExpirationErrors(t *testing.T) {
	res := execute(t, testToday, "expiration", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, ExitCommandError, res.code)

	junk := filepath.Join(t.TempDir(), "junk.txt")
	require.NoError(t, os.WriteFile(junk, []byte("not a bulletin\n"), 0o644))
	res = execute(t, testToday, "expiration", junk)
	assert.Equal(t, ExitCommandError, res.code)
}
