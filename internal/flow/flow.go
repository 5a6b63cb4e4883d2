package flow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// Flow is a loaded flow definition.
type Flow struct {
	// ID identifies the flow on the server. When the export has no id the
	// endpoint name is used instead.
	ID   string
	Name string
	Path string
}

// LoadFlow reads the flow definition at path.
func LoadFlow(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("flow file %s is not valid JSON", path)
	}

	doc := gjson.ParseBytes(data)
	if !doc.Get("data").IsObject() {
		return nil, fmt.Errorf("flow file %s has no graph data", path)
	}

	id := doc.Get("id").String()
	if id == "" {
		id = doc.Get("endpoint_name").String()
	}
	if id == "" {
		return nil, errors.New("flow file has neither id nor endpoint_name")
	}

	return &Flow{
		ID:   id,
		Name: doc.Get("name").String(),
		Path: path,
	}, nil
}

// LoadFlowFrom joins dir and file and loads the result.
func LoadFlowFrom(dir, file string) (*Flow, error) {
	return LoadFlow(filepath.Join(dir, file))
}
