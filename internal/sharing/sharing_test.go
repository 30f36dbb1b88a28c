package sharing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wnkinc/delta-bridge/internal/model"
)

type fakeLister struct {
	shared []model.Dataset
	err    error
}

func (f *fakeLister) ListShared(context.Context) ([]model.Dataset, error) {
	return f.shared, f.err
}

type fakeRunner struct {
	commands []string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, commands ...string) (string, error) {
	f.commands = commands
	if f.err != nil {
		return "", f.err
	}
	return "cmd-7", nil
}

func sharedDataset(id string) model.Dataset {
	return model.Dataset{
		UserID:  "u1",
		S3Key:   model.RawKey(id, "a.csv"),
		TableID: id,
		Status:  model.StatusShared,
	}
}

func newSync(lister SharedLister, runner CommandRunner) *Synchronizer {
	return New(lister, runner, Config{
		Bucket: "bridge-bucket",
		Host:   "share.example.com",
		Port:   8080,
	}, zerolog.Nop())
}

func TestResync(t *testing.T) {
	lister := &fakeLister{shared: []model.Dataset{sharedDataset("bbb"), sharedDataset("aaa")}}
	runner := &fakeRunner{}

	id, err := newSync(lister, runner).Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cmd-7", id)

	require.Len(t, runner.commands, 4)
	assert.Contains(t, runner.commands[0], "/opt/delta-sharing/conf/delta-sharing-server.yaml")
	assert.Equal(t, "EOF", runner.commands[2])
	assert.Equal(t, "systemctl restart delta-sharing", runner.commands[3])

	var doc serverConfig
	require.NoError(t, yaml.Unmarshal([]byte(runner.commands[1]), &doc))
	assert.Equal(t, 8080, doc.Port)
	assert.Equal(t, "/delta-sharing", doc.Endpoint)
	require.Len(t, doc.Shares, 1)
	require.Len(t, doc.Shares[0].Schemas, 1)

	// The catalog holds exactly the shared set, sorted by id.
	assert.Equal(t, []tableEntry{
		{Name: "aaa", Location: "s3a://bridge-bucket/datasets/aaa/delta"},
		{Name: "bbb", Location: "s3a://bridge-bucket/datasets/bbb/delta"},
	}, doc.Shares[0].Schemas[0].Tables)
}

func TestResyncEmptyCatalog(t *testing.T) {
	runner := &fakeRunner{}

	_, err := newSync(&fakeLister{}, runner).Resync(context.Background())
	require.NoError(t, err)

	var doc serverConfig
	require.NoError(t, yaml.Unmarshal([]byte(runner.commands[1]), &doc))
	assert.Empty(t, doc.Shares[0].Schemas[0].Tables, "unsharing the last dataset empties the catalog")
}

func TestResyncListFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("scan failed")}

	_, err := newSync(lister, &fakeRunner{}).Resync(context.Background())
	assert.Error(t, err)
}

func TestResyncDispatchFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("ssm down")}

	_, err := newSync(&fakeLister{}, runner).Resync(context.Background())
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	p := newSync(&fakeLister{}, &fakeRunner{}).Profile()

	assert.Equal(t, model.Profile{
		ShareCredentialsVersion: 1,
		Endpoint:                "http://share.example.com:8080/delta-sharing",
		BearerToken:             "",
	}, p)
}

func TestSnippet(t *testing.T) {
	snippet := newSync(&fakeLister{}, &fakeRunner{}).Snippet("abc123")

	assert.Contains(t, snippet, "import delta_sharing")
	assert.Contains(t, snippet, "#delta-bridge.default.abc123")
	assert.Contains(t, snippet, "load_as_pandas")
}
