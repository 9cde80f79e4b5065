package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["resources"],
  "properties": {
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "url", "type", "keywords"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "keywords": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(catalogSchema)

// LoadCatalog reads a resource catalog from path. path may be a single YAML
// file or a directory, in which case every .yaml/.yml file below it is
// loaded in lexical order and the resources are concatenated.
func LoadCatalog(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	var resources []Resource
	if !info.IsDir() {
		resources, err = loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
	} else {
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			if !strings.HasSuffix(p, ".yaml") && !strings.HasSuffix(p, ".yml") {
				return nil
			}
			r, err := loadFile(p)
			if err != nil {
				return err
			}
			resources = append(resources, r...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
	}

	slog.Info("resource catalog loaded", "path", path, "resources", len(resources))
	return NewCatalog(resources), nil
}

func loadFile(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(data, path)
}

func parseCatalog(data []byte, name string) ([]Resource, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: parse yaml: %w", name, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%s: validate: %w", name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%s: invalid catalog: %s", name, strings.Join(msgs, "; "))
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	return file.Resources, nil
}
