package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/factoryplan/internal/ir"
)

//go:embed plan.schema.json
var planSchemaJSON string

var (
	planSchema = jsonschema.MustCompileString("plan.schema.json", planSchemaJSON)

	// EncodeAll and DecodeAll are safe for concurrent use.
	encoder = mustEncoder(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)))
	decoder = mustDecoder(zstd.NewReader(nil))
)

func mustEncoder(enc *zstd.Encoder, err error) *zstd.Encoder {
	if err != nil {
		panic(fmt.Sprintf("store: zstd encoder: %v", err))
	}
	return enc
}

func mustDecoder(dec *zstd.Decoder, err error) *zstd.Decoder {
	if err != nil {
		panic(fmt.Sprintf("store: zstd decoder: %v", err))
	}
	return dec
}

// ErrInvalidPayload indicates a stored plan that fails decoding or schema validation.
var ErrInvalidPayload = errors.New("invalid plan payload")

// encodePlan serializes a plan to zstd-compressed JSON.
func encodePlan(plan *ir.Plan) ([]byte, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// decodePlan decompresses a stored BLOB, validates it against the plan schema
// and decodes it.
func decodePlan(blob []byte) (*ir.Plan, error) {
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrInvalidPayload, err)
	}
	return DecodePlanJSON(raw)
}

// DecodePlanJSON validates plain plan JSON against the plan schema and
// decodes it. Used for plans read from files as well as stored tabs.
func DecodePlanJSON(raw []byte) (*ir.Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := planSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var plan ir.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &plan, nil
}
