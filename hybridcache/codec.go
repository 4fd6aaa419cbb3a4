package hybridcache

import (
	"encoding/base64"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns a session record into the string stored in SessionStorage.
type Codec interface {
	Encode(v any) (string, error)
	Decode(data string, v any) error
}

// JSONCodec stores records as JSON, e.g. {"value":...,"fetchedAt":"2024-03-01T12:00:00Z"}.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec) Decode(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

// MsgpackCodec stores records as base64-encoded msgpack. Records are smaller
// than their JSON form, which matters against a per-item quota.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (MsgpackCodec) Decode(data string, v any) error {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(b, v)
}
