// Package config loads the node configuration file.
//
// The file is TOML. Every field has a working default so a node can run with
// no config at all; the path is taken from --config or the LUMEN_NODE_CONFIG
// environment variable.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"

	"lumen.art/node/storage"
	"lumen.art/node/storage/casregistry"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "LUMEN_NODE_CONFIG"

type Config struct {
	LogLevel string `toml:"log_level"`

	Node    Node    `toml:"node"`
	Render  Render  `toml:"render"`
	Quota   Quota   `toml:"quota"`
	Ledger  Ledger  `toml:"ledger"`
	Storage Storage `toml:"storage"`

	// Replicas are fire-and-forget replication targets.
	Replicas []Backend `toml:"replica"`
}

type Node struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Platform string `toml:"platform"`
}

type Render struct {
	ScratchRoot string   `toml:"scratch_root"`
	FFmpeg      string   `toml:"ffmpeg"`
	Timeout     duration `toml:"timeout"`
}

type Quota struct {
	// Limit is executions per caller key; zero or below means unlimited.
	Limit int `toml:"limit"`
}

type Ledger struct {
	Path string `toml:"path"`
}

type Storage struct {
	// Backend is the local artifact store. An empty kind disables storage.
	Backend Backend `toml:"backend"`
}

// Backend selects a registered store backend by kind with its options, e.g.
//
//	[storage.backend]
//	kind = "localfs"
//	options = { dir = "/var/lib/lumen/artifacts" }
type Backend struct {
	Kind    string            `toml:"kind"`
	Name    string            `toml:"name"`
	Options map[string]string `toml:"options"`
}

// duration lets TOML carry values like "2s".
type duration time.Duration

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Node: Node{
			Name:     "lumen-node",
			Version:  "dev",
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
		},
		Render: Render{
			FFmpeg:  "ffmpeg",
			Timeout: duration(2 * time.Second),
		},
	}
}

// Load reads the config at path, or at $LUMEN_NODE_CONFIG when path is
// empty. A missing file (only when not explicitly requested) yields the
// defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// OpenBackend opens one configured backend through the registry.
func OpenBackend(b Backend) (storage.CAS, func() error, error) {
	return casregistry.Open(b.Kind, b.Options)
}

// OpenReplicas opens every replica backend. The returned close function
// closes the ones that were opened, in reverse order.
func OpenReplicas(cfgs []Backend) ([]storage.NamedCAS, func(), error) {
	var (
		replicas []storage.NamedCAS
		closers  []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	for i, rc := range cfgs {
		cas, closer, err := OpenBackend(rc)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("replica %d (%s): %w", i, rc.Kind, err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		name := rc.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", rc.Kind, i)
		}
		replicas = append(replicas, storage.NamedCAS{Name: name, CAS: cas})
	}
	return replicas, closeAll, nil
}
