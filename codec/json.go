package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// JSON encodes with encoding/json. Documents it writes are readable by any
// JSON tool.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// GoJSON encodes with github.com/goccy/go-json. Its output is plain JSON, so
// either codec can read what the other wrote.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }
