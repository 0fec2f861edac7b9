package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Source is the external interface the loader consumes (spec §6 "Schema
// files"). A bundle groups the api/mtproto/secret schema files plus any
// number of arbitrary labeled extras, and gets one chance to migrate the
// registry after load.
type Source interface {
	APISchemaPath() string
	MTProtoSchemaPath() string
	SecretSchemaPath() string
	Other() map[string]string
	Upgrade(r *Registry) error
}

// BundleConfig is an envconfig-driven Source, grounded on
// more0ai-registry/internal/config's `envconfig:"..." default:"..."`
// idiom (itself a generalization of Gealber-dht/config.Config's
// load-a-config-struct pattern, swapped from an HTTP fetch to local schema
// files since the core has no network I/O).
type BundleConfig struct {
	APIPath     string `envconfig:"TL_API_SCHEMA_PATH"`
	MTProtoPath string `envconfig:"TL_MTPROTO_SCHEMA_PATH"`
	SecretPath  string `envconfig:"TL_SECRET_SCHEMA_PATH" default:""`
	// OtherPaths is a label=path comma list, e.g. "td=schema/td.tl".
	OtherPaths string `envconfig:"TL_OTHER_SCHEMA_PATHS" default:""`
	Layer      int    `envconfig:"TL_SCHEMA_LAYER" default:"-1"`
}

// LoadBundleConfigFromEnv reads a BundleConfig from the process
// environment, following more0ai-registry's `envconfig.Process("", &c)`
// call shape.
func LoadBundleConfigFromEnv() (*BundleConfig, error) {
	var c BundleConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("tl schema: load bundle config from env: %w", err)
	}
	return &c, nil
}

func (c *BundleConfig) APISchemaPath() string     { return c.APIPath }
func (c *BundleConfig) MTProtoSchemaPath() string { return c.MTProtoPath }
func (c *BundleConfig) SecretSchemaPath() string  { return c.SecretPath }

func (c *BundleConfig) Other() map[string]string {
	out := make(map[string]string)
	if c.OtherPaths == "" {
		return out
	}
	for _, pair := range splitComma(c.OtherPaths) {
		k, v, ok := splitEquals(pair)
		if ok {
			out[k] = v
		}
	}
	return out
}

// Upgrade is a no-op by default; callers embedding BundleConfig override
// it (or wrap it) to run schema-version migrations, per spec §6
// "upgrade() (called once, post-load, to allow schema-version
// migration)".
func (c *BundleConfig) Upgrade(r *Registry) error { return nil }

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func splitEquals(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// ManifestBundle loads schema paths from a JSON manifest file on disk,
// the local-file analogue of Gealber-dht/config.Config's
// encoding/json-unmarshal-a-config-struct pattern (that one fetched its
// JSON over HTTP; the core here has no network I/O, so this reads a local
// path instead).
type ManifestBundle struct {
	API     string            `json:"api"`
	MTProto string            `json:"mtproto"`
	Secret  string            `json:"secret"`
	OtherM  map[string]string `json:"other"`
}

// LoadManifestBundle reads and unmarshals a manifest file.
func LoadManifestBundle(path string) (*ManifestBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tl schema: read manifest %s: %w", path, err)
	}

	var m ManifestBundle
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("tl schema: parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *ManifestBundle) APISchemaPath() string     { return m.API }
func (m *ManifestBundle) MTProtoSchemaPath() string { return m.MTProto }
func (m *ManifestBundle) SecretSchemaPath() string  { return m.Secret }
func (m *ManifestBundle) Other() map[string]string {
	if m.OtherM == nil {
		return map[string]string{}
	}
	return m.OtherM
}
func (m *ManifestBundle) Upgrade(r *Registry) error { return nil }
