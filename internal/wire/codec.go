package wire

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/nodalync/engine/internal/errs"
)

var encMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// EncodePayload canonically CBOR-encodes a typed payload: sorted map keys,
// definite lengths, minimal integer width, no floats (§4.J).
func EncodePayload(v any) ([]byte, error) {
	raw, err := encMode.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidMessage, "encode payload", err)
	}
	return raw, nil
}

// DecodePayload decodes a CBOR payload into v.
func DecodePayload(raw []byte, v any) error {
	if err := cbor.Unmarshal(raw, v); err != nil {
		return errs.Wrap(errs.InvalidMessage, "decode payload", err)
	}
	return nil
}
