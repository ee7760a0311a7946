package cli

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/testutil"
)

// fakeS3 is a path-style S3 endpoint keeping objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodGet:
		if body, ok := f.objects[key]; ok {
			return s3Response(http.StatusOK, body), nil
		}
		return s3Response(http.StatusNotFound, nil), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return s3Response(http.StatusOK, nil), nil
	}
	return s3Response(http.StatusNotImplemented, nil), nil
}

func s3Response(code int, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    code,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        http.Header{"Content-Length": {strconv.Itoa(len(body))}},
	}
}

func executePublish(t *testing.T, s3 *fakeS3, today calendar.Day, args ...string) execResult {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	for _, k := range []string{"LEAPCAL_S3_BUCKET", "LEAPCAL_S3_REGION", "LEAPCAL_S3_ENDPOINT", "LEAPCAL_S3_KEY", "LEAPCAL_S3_PATH_STYLE"} {
		t.Setenv(k, "")
	}

	clock := testutil.NewFixedClock(today)
	cmd := newPublishCommand(&PublishOptions{
		RootOptions: &RootOptions{Format: "text", Now: clock.Now},
		HTTPClient:  &http.Client{Transport: s3},
	})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{out: out.String(), err: errOut.String(), code: GetExitCode(err)}
}

func s3Args(path string, extra ...string) []string {
	return append([]string{path, "--bucket", "tables", "--endpoint", "https://mock.s3.local", "--path-style"}, extra...)
}

func TestPublish(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{}}
	path := writeTable(t, officialTable(), true)
	body, err := os.ReadFile(path)
	require.NoError(t, err)

	res := executePublish(t, s3, testToday, s3Args(path, "--key", "iers/leap_seconds.tab")...)
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Published s3://tables/iers/leap_seconds.tab")
	assert.Equal(t, body, s3.objects["tables/iers/leap_seconds.tab"])
	assert.Regexp(t, `^[0-9a-f]{64}  leap_seconds.tab\n$`, string(s3.objects["tables/iers/leap_seconds.tab.sha256"]))

	res = executePublish(t, s3, testToday, s3Args(path, "--key", "iers/leap_seconds.tab")...)
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "already holds this table")
}

func TestPublishDefaultKey(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{}}
	path := writeTable(t, officialTable(), true)

	res := executePublish(t, s3, testToday, s3Args(path)...)
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, s3.objects, "tables/leap_seconds.tab")
}

func TestPublishRefusesConflict(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{"tables/leap_seconds.tab": []byte("older table\n")}}
	path := writeTable(t, officialTable(), true)

	res := executePublish(t, s3, testToday, s3Args(path)...)
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, []byte("older table\n"), s3.objects["tables/leap_seconds.tab"])
}

func TestPublishRefusesExpiredTable(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{}}
	path := writeTable(t, officialTable(), true)

	res := executePublish(t, s3, calendar.FromYMD(2018, 1, 1), s3Args(path)...)
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.err, "W301")
	assert.Empty(t, s3.objects)
}

func TestPublishRequiresBucket(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{}}
	path := writeTable(t, officialTable(), true)

	res := executePublish(t, s3, testToday, path)
	assert.Equal(t, ExitCommandError, res.code)
}

func TestPublishTarget(t *testing.T) {
	t.Setenv("LEAPCAL_S3_BUCKET", "from-env")
	t.Setenv("LEAPCAL_S3_REGION", "eu-west-3")
	t.Setenv("LEAPCAL_S3_KEY", "")

	opts := &PublishOptions{Bucket: "from-flag"}
	target, err := opts.target()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", target.Bucket, "flags win over the environment")
	assert.Equal(t, "eu-west-3", target.Region)
	assert.Equal(t, "leap_seconds.tab", target.Key)

	opts = &PublishOptions{Config: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = opts.target()
	assert.Error(t, err)
}
