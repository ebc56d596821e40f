// Package parse recovers the scene list from a model's attempt at JSON.
package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lwneal/cinematic-generator/types"
)

// Shape says where the scene list was found
type Shape int

const (
	ShapeUnrecognized Shape = iota
	// ShapeTopLevelSequence is a bare JSON array of scenes.
	ShapeTopLevelSequence
	// ShapeKeyedWrapper is an object holding the array under some key, e.g. {"scenes": [...]}.
	ShapeKeyedWrapper
)

func (s Shape) String() string {
	switch s {
	case ShapeTopLevelSequence:
		return "top-level sequence"
	case ShapeKeyedWrapper:
		return "keyed wrapper"
	default:
		return "unrecognized"
	}
}

// Parse decodes contents strictly as one JSON value and returns the scene list.
// A top-level array is returned as is; for an object, the first array value in
// document order wins. Errors wrap types.ErrUndecodable or types.ErrNoSceneList.
func Parse(contents []byte) ([]types.SceneRecord, Shape, error) {
	raw, err := decodeOne(cleanJSON(contents))
	if err != nil {
		return nil, ShapeUnrecognized, fmt.Errorf("%w: %v", types.ErrUndecodable, err)
	}

	shape := ShapeUnrecognized
	var list json.RawMessage
	switch firstByte(raw) {
	case '[':
		shape, list = ShapeTopLevelSequence, raw
	case '{':
		list, err = firstArrayValue(raw)
		if err != nil {
			return nil, ShapeUnrecognized, fmt.Errorf("%w: %v", types.ErrUndecodable, err)
		}
		if list != nil {
			shape = ShapeKeyedWrapper
		}
	}
	if list == nil {
		return nil, ShapeUnrecognized, types.ErrNoSceneList
	}

	var scenes []types.SceneRecord
	if err := json.Unmarshal(list, &scenes); err != nil {
		return nil, ShapeUnrecognized, fmt.Errorf("%w: scene items: %v", types.ErrUndecodable, err)
	}
	if scenes == nil {
		scenes = []types.SceneRecord{}
	}
	return scenes, shape, nil
}

// ParseFile reads and parses a structured-output file
func ParseFile(path string) ([]types.SceneRecord, Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ShapeUnrecognized, &types.ParseFailedError{Path: path, Err: err}
	}
	scenes, shape, err := Parse(data)
	if err != nil {
		return nil, shape, &types.ParseFailedError{Path: path, Err: err}
	}
	return scenes, shape, nil
}

func decodeOne(data []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return raw, nil
}

// firstArrayValue walks an object's members in document order
func firstArrayValue(obj json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil { // {
		return nil, err
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, err
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if firstByte(v) == '[' {
			return v, nil
		}
	}
	return nil, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// cleanJSON strips markdown fences if the model wrapped its answer in ```json ... ```
func cleanJSON(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}
