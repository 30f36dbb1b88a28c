// Package sharing keeps the remote Delta Sharing server's configuration in
// sync with the status store. Every share/unshare rebuilds the full catalog
// from scratch, so the remote config can never drift permanently: the next
// successful resync repairs whatever a partial failure left behind.
package sharing

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/wnkinc/delta-bridge/internal/model"
)

// SharedLister is the slice of the status store the synchronizer needs.
type SharedLister interface {
	ListShared(ctx context.Context) ([]model.Dataset, error)
}

// CommandRunner dispatches a shell script to the sharing host.
type CommandRunner interface {
	Run(ctx context.Context, commands ...string) (string, error)
}

// Config locates the sharing server and the bucket backing its tables.
type Config struct {
	Bucket string
	Host   string
	Port   int

	// ShareName, SchemaName, ConfigPath and ServiceName have working
	// defaults; override only in tests.
	ShareName   string
	SchemaName  string
	ConfigPath  string
	ServiceName string
}

func (c *Config) applyDefaults() {
	if c.ShareName == "" {
		c.ShareName = "delta-bridge"
	}
	if c.SchemaName == "" {
		c.SchemaName = "default"
	}
	if c.ConfigPath == "" {
		c.ConfigPath = "/opt/delta-sharing/conf/delta-sharing-server.yaml"
	}
	if c.ServiceName == "" {
		c.ServiceName = "delta-sharing"
	}
}

// Synchronizer rebuilds and pushes the sharing server configuration.
type Synchronizer struct {
	store SharedLister
	ch    CommandRunner
	cfg   Config
	log   zerolog.Logger
}

func New(store SharedLister, ch CommandRunner, cfg Config, log zerolog.Logger) *Synchronizer {
	cfg.applyDefaults()
	return &Synchronizer{store: store, ch: ch, cfg: cfg, log: log}
}

// delta-sharing-server config document.
type serverConfig struct {
	Version  int     `yaml:"version"`
	Host     string  `yaml:"host"`
	Port     int     `yaml:"port"`
	Endpoint string  `yaml:"endpoint"`
	Shares   []share `yaml:"shares"`
}

type share struct {
	Name    string   `yaml:"name"`
	Schemas []schema `yaml:"schemas"`
}

type schema struct {
	Name   string       `yaml:"name"`
	Tables []tableEntry `yaml:"tables"`
}

type tableEntry struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// Resync recomputes the full shared-table catalog, renders the server
// config, and pushes it to the sharing host followed by a service restart.
// Dispatch is fire-and-forget; the returned command ID is for observability
// only.
func (s *Synchronizer) Resync(ctx context.Context) (string, error) {
	shared, err := s.store.ListShared(ctx)
	if err != nil {
		return "", err
	}

	doc, err := s.renderConfig(shared)
	if err != nil {
		return "", err
	}

	commandID, err := s.ch.Run(ctx,
		fmt.Sprintf("cat > %s <<'EOF'", s.cfg.ConfigPath),
		string(doc),
		"EOF",
		fmt.Sprintf("systemctl restart %s", s.cfg.ServiceName),
	)
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("commandId", commandID).
		Int("sharedTables", len(shared)).
		Msg("pushed sharing config")
	return commandID, nil
}

// renderConfig builds the YAML document listing every shared table. Tables
// are sorted by id so identical catalogs render identically.
func (s *Synchronizer) renderConfig(shared []model.Dataset) ([]byte, error) {
	sort.Slice(shared, func(i, j int) bool { return shared[i].TableID < shared[j].TableID })

	tables := make([]tableEntry, len(shared))
	for i, ds := range shared {
		tables[i] = tableEntry{
			Name:     ds.TableID,
			Location: fmt.Sprintf("s3a://%s/%s", s.cfg.Bucket, model.DeltaPrefix(ds.TableID)),
		}
	}

	doc := serverConfig{
		Version:  1,
		Host:     "0.0.0.0",
		Port:     s.cfg.Port,
		Endpoint: "/delta-sharing",
		Shares: []share{{
			Name:    s.cfg.ShareName,
			Schemas: []schema{{Name: s.cfg.SchemaName, Tables: tables}},
		}},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render sharing config: %w", err)
	}
	return out, nil
}

// Profile returns the connection profile clients save as a .share file.
func (s *Synchronizer) Profile() model.Profile {
	return model.Profile{
		ShareCredentialsVersion: 1,
		Endpoint:                fmt.Sprintf("http://%s:%d/delta-sharing", s.cfg.Host, s.cfg.Port),
		BearerToken:             "",
	}
}

// Snippet builds the pandas usage snippet for one shared table.
func (s *Synchronizer) Snippet(tableID string) string {
	return fmt.Sprintf(`import delta_sharing

# Save the connection profile from the share response as delta-bridge.share.
profile = "delta-bridge.share"
url = profile + "#%s.%s.%s"

df = delta_sharing.load_as_pandas(url)
df.head()
`, s.cfg.ShareName, s.cfg.SchemaName, tableID)
}
