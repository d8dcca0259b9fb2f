package record

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hldb/welo-sub001/util/cidutil"
)

const (
	fieldEpochRefs protowire.Number = 1
	fieldAuthor    protowire.Number = 2
	fieldSignature protowire.Number = 3
	fieldData      protowire.Number = 4

	fieldClock   protowire.Number = 1
	fieldParents protowire.Number = 2
	fieldPayload protowire.Number = 3
	fieldAccess  protowire.Number = 4

	fieldProtocol protowire.Number = 1
	fieldWrite    protowire.Number = 2
)

// Encode returns the canonical bytes of the record
func Encode(r *Record) ([]byte, error) {
	if err := validate(r); err != nil {
		return nil, err
	}
	data, err := EncodeData(&r.Data)
	if err != nil {
		return nil, err
	}
	return encodeRecord(r, data)
}

// EncodeData returns the canonical bytes of the signed part of a record
func EncodeData(d *Data) (b []byte, err error) {
	if d.Clock != 0 {
		b = protowire.AppendTag(b, fieldClock, protowire.VarintType)
		b = protowire.AppendVarint(b, d.Clock)
	}
	if b, err = appendIds(b, fieldParents, d.Parents); err != nil {
		return nil, err
	}
	if len(d.Payload) != 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, d.Payload)
	}
	if d.Access != nil {
		b = protowire.AppendTag(b, fieldAccess, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeAccess(d.Access))
	}
	return b, nil
}

func encodeRecord(r *Record, data []byte) (b []byte, err error) {
	if b, err = appendIds(b, fieldEpochRefs, r.EpochRefs); err != nil {
		return nil, err
	}
	if len(r.Author) != 0 {
		b = protowire.AppendTag(b, fieldAuthor, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Author)
	}
	if len(r.Signature) != 0 {
		b = protowire.AppendTag(b, fieldSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Signature)
	}
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	return b, nil
}

func encodeAccess(a *AccessSnapshot) (b []byte) {
	if a.Protocol != "" {
		b = protowire.AppendTag(b, fieldProtocol, protowire.BytesType)
		b = protowire.AppendString(b, a.Protocol)
	}
	for _, w := range a.Write {
		b = protowire.AppendTag(b, fieldWrite, protowire.BytesType)
		b = protowire.AppendString(b, w)
	}
	// an empty snapshot still has to be distinguishable from an absent one,
	// so the field itself is always emitted by the caller
	return b
}

func appendIds(b []byte, num protowire.Number, ids []string) ([]byte, error) {
	for _, id := range ids {
		bin, err := cidutil.ToBinary(id)
		if err != nil {
			return nil, structuralf("invalid identifier %q: %v", id, err)
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, bin)
	}
	return b, nil
}

// Decode parses canonical record bytes. Any byte string that is not exactly
// what Encode would produce for the parsed record is rejected.
func Decode(raw []byte) (*Record, error) {
	if len(raw) == 0 {
		return nil, structuralf("empty input")
	}
	r := &Record{}
	var (
		data    []byte
		hasData bool
	)
	err := walkFields(raw, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) (err error) {
		if typ != protowire.BytesType {
			return structuralf("field %d: unexpected wire type %d", num, typ)
		}
		switch num {
		case fieldEpochRefs:
			var id string
			if id, err = decodeId(v); err != nil {
				return err
			}
			r.EpochRefs = append(r.EpochRefs, id)
		case fieldAuthor:
			r.Author = bytes.Clone(v)
		case fieldSignature:
			r.Signature = bytes.Clone(v)
		case fieldData:
			data, hasData = v, true
		default:
			return structuralf("unknown record field %d", num)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !hasData {
		return nil, structuralf("data is missing")
	}
	if err = decodeData(data, &r.Data); err != nil {
		return nil, err
	}
	if err = validate(r); err != nil {
		return nil, err
	}
	canonical, err := Encode(r)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canonical, raw) {
		return nil, structuralf("non-canonical encoding")
	}
	r.Raw = bytes.Clone(raw)
	r.RawData = bytes.Clone(data)
	if r.Id, err = cidutil.NewCidFromBytes(r.Raw); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeData(b []byte, d *Data) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte, varint uint64) (err error) {
		switch {
		case num == fieldClock && typ == protowire.VarintType:
			d.Clock = varint
		case num == fieldParents && typ == protowire.BytesType:
			var id string
			if id, err = decodeId(v); err != nil {
				return err
			}
			d.Parents = append(d.Parents, id)
		case num == fieldPayload && typ == protowire.BytesType:
			d.Payload = bytes.Clone(v)
		case num == fieldAccess && typ == protowire.BytesType:
			d.Access = &AccessSnapshot{}
			return decodeAccess(v, d.Access)
		default:
			return structuralf("unexpected data field %d (wire type %d)", num, typ)
		}
		return nil
	})
}

func decodeAccess(b []byte, a *AccessSnapshot) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return structuralf("access field %d: unexpected wire type %d", num, typ)
		}
		switch num {
		case fieldProtocol:
			a.Protocol = string(v)
		case fieldWrite:
			a.Write = append(a.Write, string(v))
		default:
			return structuralf("unknown access field %d", num)
		}
		return nil
	})
}

func decodeId(b []byte) (string, error) {
	c, err := cidutil.FromBinary(b)
	if err != nil {
		return "", structuralf("malformed identifier: %v", err)
	}
	return c.String(), nil
}

// walkFields iterates over varint and length-delimited fields, fields must come in ascending order
func walkFields(b []byte, f func(num protowire.Number, typ protowire.Type, v []byte, varint uint64) error) error {
	var last protowire.Number
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return structuralf("invalid tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		if num < last {
			return structuralf("field %d is out of order", num)
		}
		last = num
		var (
			v      []byte
			varint uint64
		)
		switch typ {
		case protowire.VarintType:
			varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		default:
			return structuralf("field %d: unsupported wire type %d", num, typ)
		}
		if n < 0 {
			return structuralf("field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := f(num, typ, v, varint); err != nil {
			return err
		}
	}
	return nil
}

func validate(r *Record) error {
	if len(r.Author) != 0 && len(r.Author) != AuthorSize {
		return structuralf("author must be %d bytes, got %d", AuthorSize, len(r.Author))
	}
	if len(r.Signature) != 0 && len(r.Signature) != SignatureSize {
		return structuralf("signature must be %d bytes, got %d", SignatureSize, len(r.Signature))
	}
	if (len(r.Author) == 0) != (len(r.Signature) == 0) {
		return structuralf("author and signature must be both present or both absent")
	}
	if len(r.Author) == 0 {
		if !r.IsEpoch() {
			return structuralf("entry must have an author")
		}
		if len(r.EpochRefs) != 0 || len(r.Data.Parents) != 0 {
			return structuralf("authorless epoch must not reference other records")
		}
	} else if len(r.EpochRefs) == 0 {
		return structuralf("epochRefs must not be empty")
	}
	if r.Data.Access != nil && r.Data.Access.Protocol == "" {
		return structuralf("access snapshot must name a protocol")
	}
	if hasDuplicates(r.EpochRefs) {
		return structuralf("duplicate epoch ref")
	}
	if hasDuplicates(r.Data.Parents) {
		return structuralf("duplicate parent")
	}
	return nil
}

func hasDuplicates(ids []string) bool {
	if len(ids) < 2 {
		return false
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
