package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/coreproto/tl/schema"
	"github.com/coreproto/tl/tl"
)

// resolveDefault supplies the "conventional default" for a missing argument
// (spec §4.5 "serializeParams protocol", emission pass, argument missing).
func (c *Codec) resolveDefault(p schema.Param, entry *schema.Entry, args *tl.Record) (tl.Value, error) {
	switch p.Name {
	case "random_bytes":
		return c.randomBytesDefault()
	case "random_id":
		return c.randomIDDefault(p, args)
	case "hash":
		return zeroOfType(p.Type), nil
	case "flags", "flags2":
		return tl.Int(0), nil
	}

	if entry.IsMethod {
		if v, handled, err := c.delegateExternal(entry, p); handled {
			if err != nil {
				return tl.Value{}, fmt.Errorf("tl codec: serialize %s.%s: %w", entry.Name, p.Name, err)
			}
			return v, nil
		}
	}

	switch p.Type {
	case "string":
		return tl.Str(""), nil
	case "bytes":
		return tl.Bytes(nil), nil
	case "int":
		return tl.Int(0), nil
	}

	if p.Subtype != "" {
		return tl.Vec(nil), nil
	}
	if isDataJSONType(p.Type) {
		return tl.Null(), nil
	}

	if e, ok := c.findEmptyConstructor(p.Type); ok {
		return tl.Rec(tl.NewRecord(e.Name)), nil
	}

	return tl.Value{}, fmt.Errorf("tl codec: serialize %s.%s: %w", entry.Name, p.Name, tl.ErrMissingParam)
}

func zeroOfType(t string) tl.Value {
	if t == "long" {
		return tl.Long(0)
	}
	return tl.Int(0)
}

// randomBytesDefault implements "random_bytes: 15 + 4*rand(0..2) random
// bytes, serialized as bytes" (spec §4.5).
func (c *Codec) randomBytesDefault() (tl.Value, error) {
	choice, err := c.randomByteChoice(3)
	if err != nil {
		return tl.Value{}, err
	}
	buf := make([]byte, 15+4*choice)
	if _, err := io.ReadFull(c.rand(), buf); err != nil {
		return tl.Value{}, fmt.Errorf("tl codec: generate random_bytes: %w", err)
	}
	return tl.Bytes(buf), nil
}

// randomIDDefault implements the random_id conventions: long -> 8 random
// bytes; int -> 4 random bytes; Vector t -> vector of random 8-byte longs,
// matched in length to the sibling "id" field.
func (c *Codec) randomIDDefault(p schema.Param, args *tl.Record) (tl.Value, error) {
	switch p.Type {
	case "long":
		n, err := c.randomLong()
		if err != nil {
			return tl.Value{}, err
		}
		return tl.Long(n), nil
	case "int":
		buf := make([]byte, 4)
		if _, err := io.ReadFull(c.rand(), buf); err != nil {
			return tl.Value{}, fmt.Errorf("tl codec: generate random_id: %w", err)
		}
		return tl.Int(int32(binary.LittleEndian.Uint32(buf))), nil
	}

	if p.Subtype != "" {
		n := 0
		if idVal, ok := args.Get("id"); ok {
			if vec, ok := idVal.AsVector(); ok {
				n = len(vec)
			}
		}
		vec := make([]tl.Value, n)
		for i := range vec {
			v, err := c.randomLong()
			if err != nil {
				return tl.Value{}, err
			}
			vec[i] = tl.Long(v)
		}
		return tl.Vec(vec), nil
	}

	return tl.Value{}, fmt.Errorf("tl codec: random_id: unsupported type %q: %w", p.Type, tl.ErrSchemaInvalid)
}

func (c *Codec) randomLong() (int64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(c.rand(), buf); err != nil {
		return 0, fmt.Errorf("tl codec: generate random long: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf)), nil
}

func (c *Codec) randomByteChoice(mod int) (int, error) {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(c.rand(), buf); err != nil {
		return 0, fmt.Errorf("tl codec: choose random size: %w", err)
	}
	return int(buf[0]) % mod, nil
}

func (c *Codec) rand() io.Reader {
	return c.Collab.Rand
}

// delegateExternal synthesizes a missing method param by handing off to an
// external collaborator (spec §4.5 "for certain method+param pairs,
// synthesize by delegating to external collaborators"; see §6). handled is
// false when the param doesn't match a known delegation or no collaborator
// was wired, letting the caller fall through to the generic conventions.
func (c *Codec) delegateExternal(entry *schema.Entry, p schema.Param) (v tl.Value, handled bool, err error) {
	switch p.Type {
	case "InputFile", "InputFile Empty", "InputEncryptedFile":
		if c.Collab.Upload == nil {
			return tl.Value{}, false, nil
		}
		v, err = c.Collab.Upload.ResolveInputFile(entry.Name, p.Name)
		return v, true, err
	case "InputEncryptedChat":
		if c.Collab.EncryptedChatInfo == nil {
			return tl.Value{}, false, nil
		}
		v, err = c.Collab.EncryptedChatInfo.ResolveInputEncryptedChat(entry.Name, p.Name)
		return v, true, err
	}

	if p.Name == "data" && entry.Origin == schema.OriginSecret {
		if c.Collab.Secret == nil {
			return tl.Value{}, false, nil
		}
		v, err = c.Collab.Secret.ResolveSecretData(entry.Name)
		return v, true, err
	}

	return tl.Value{}, false, nil
}

// findEmptyConstructor probes for the "<type>Empty" or "input<type>Empty"
// constructor named by spec §4.5's last-resort default rule.
func (c *Codec) findEmptyConstructor(t string) (*schema.Entry, bool) {
	for _, name := range []string{lowerFirst(t) + "Empty", "input" + t + "Empty"} {
		if e, ok := c.Registry.FindByPredicate(name, -1); ok {
			return e, true
		}
	}
	return nil, false
}
