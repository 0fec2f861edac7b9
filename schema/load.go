package schema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Load reads every schema file named by bundle and builds the registries
// described in spec §3 invariant 2: api+mtproto+secret+other(non-td) share
// one Registry; a "td" label (if present in bundle.Other()) gets its own
// parallel Registry. bundle.Upgrade is invoked once, post-load, against
// the main registry.
//
// logger receives per-file structured summaries via log/slog, the idiom
// more0ai-registry's pkg/registry uses for operational logging; mismatch
// and invariant diagnostics still go through the *log.Logger injected into
// New (spec §9 "Global state").
func Load(bundle Source, logger *slog.Logger) (main *Registry, td *Registry, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	main = New(nil)

	if path := bundle.APISchemaPath(); path != "" {
		if err := loadInto(main, path, OriginAPI); err != nil {
			return nil, nil, err
		}
		logger.Info("tl schema: loaded origin", "origin", "api", "path", path, "entries", main.Len())
	}
	if path := bundle.MTProtoSchemaPath(); path != "" {
		if err := loadInto(main, path, OriginMTProto); err != nil {
			return nil, nil, err
		}
		logger.Info("tl schema: loaded origin", "origin", "mtproto", "path", path, "entries", main.Len())
	}
	if path := bundle.SecretSchemaPath(); path != "" {
		if err := loadInto(main, path, OriginSecret); err != nil {
			return nil, nil, err
		}
		logger.Info("tl schema: loaded origin", "origin", "secret", "path", path, "entries", main.Len(), "secretLayer", main.SecretLayer())
	}

	for label, path := range bundle.Other() {
		origin := Origin(label)
		if label == "td" {
			if td == nil {
				td = New(nil)
			}
			if err := loadInto(td, path, origin); err != nil {
				return nil, nil, err
			}
			logger.Info("tl schema: loaded origin", "origin", "td", "path", path, "entries", td.Len())
			continue
		}
		if err := loadInto(main, path, origin); err != nil {
			return nil, nil, err
		}
		logger.Info("tl schema: loaded origin", "origin", label, "path", path, "entries", main.Len())
	}

	if err := bundle.Upgrade(main); err != nil {
		return nil, nil, fmt.Errorf("tl schema: bundle upgrade: %w", err)
	}

	return main, td, nil
}

func loadInto(r *Registry, path string, origin Origin) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tl schema: read %s: %w", path, err)
	}

	entries, err := parseBySniff(data, path, origin)
	if err != nil {
		return fmt.Errorf("tl schema: parse %s: %w", path, err)
	}

	for _, e := range entries {
		if err := r.AddEntry(e); err != nil {
			return fmt.Errorf("tl schema: register entry from %s: %w", path, err)
		}
	}

	return applyTDBugCompat(r, entries, origin)
}

// parseBySniff picks the JSON or textual-TL parser based on file
// extension, falling back to content sniffing (a leading '{' means JSON).
func parseBySniff(data []byte, path string, origin Origin) ([]*Entry, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".json") {
		return ParseJSON(data, origin)
	}
	if strings.HasSuffix(lower, ".tl") {
		return ParseTL(string(data), origin)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var probe json.RawMessage
		if json.Unmarshal([]byte(trimmed), &probe) == nil {
			return ParseJSON(data, origin)
		}
	}
	return ParseTL(string(data), origin)
}

// applyTDBugCompat implements the spec §9 Open Question decision: the
// source library copies td-origin "nullable"-style descriptions into the
// `constructors` map even when the declaration is a method; this
// implementation writes into `methods` instead; OriginTD entries that are
// methods are guaranteed to already be in the method set because
// IsMethod was set correctly during parsing, so there is nothing further
// to "fix up" here — this function exists to document that the bug was
// consciously not reproduced, and to be the landing spot if bug-for-bug
// compatibility is ever required.
func applyTDBugCompat(r *Registry, entries []*Entry, origin Origin) error {
	if origin != OriginTD {
		return nil
	}
	return nil
}
