package codec

import (
	"crypto/rand"
	"log/slog"

	"github.com/coreproto/tl/callback"
	"github.com/coreproto/tl/schema"
)

// Codec bundles the schema registry, callback registry, and external
// collaborators that Serialize/Deserialize consult (spec §5 "Shared
// resources... the schema registries are effectively read-only after
// init"). One Codec serves one schema generation family (api+mtproto+secret
// share a Registry; td gets its own — see schema.Load).
type Codec struct {
	Registry  *schema.Registry
	Callbacks *callback.Registry
	Collab    Collaborators
	Logger    *slog.Logger
}

// New builds a Codec. Callbacks may be nil; a nil Callbacks registry
// behaves as if no hooks were ever registered. Logger is set to
// slog.Default().
func New(reg *schema.Registry, callbacks *callback.Registry, collab Collaborators) *Codec {
	if callbacks == nil {
		callbacks = callback.New()
	}
	if collab.Rand == nil {
		collab.Rand = rand.Reader
	}
	return &Codec{
		Registry:  reg,
		Callbacks: callbacks,
		Collab:    collab,
		Logger:    slog.Default(),
	}
}
