package docs

import (
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/go-jsonnet"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var documentationAssignment = regexp.MustCompile(`(?m)^DOCUMENTATION\s*=\s*[rRuU]?('''|""")`)

// ReadDocumentation reads the DOCUMENTATION block of a module file. Python
// sources carry it as a triple-quoted YAML string; YAML sidecars carry it
// either at the top level or under a DOCUMENTATION key; JSON and Jsonnet
// files are evaluated and read as the same structure.
func ReadDocumentation(fs afero.Fs, path string) (*Documentation, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}

	var raw interface{}
	switch filepath.Ext(path) {
	case ".py":
		block, ok := pythonDocumentation(string(content))
		if !ok {
			return nil, errors.Errorf("%s: no DOCUMENTATION block", path)
		}
		if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
			return nil, errors.Errorf("decoding DOCUMENTATION of %s: %w", path, err)
		}

	case ".json", ".jsonnet":
		vm := jsonnet.MakeVM()
		json, err := vm.EvaluateAnonymousSnippet(path, string(content))
		if err != nil {
			return nil, errors.Errorf("evaluating %s: %w", path, err)
		}
		// JSON is YAML
		if err := yaml.Unmarshal([]byte(json), &raw); err != nil {
			return nil, errors.Errorf("decoding %s: %w", path, err)
		}

	default:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, errors.Errorf("decoding %s: %w", path, err)
		}
	}

	documentation, err := DecodeDocumentation(raw)
	if err != nil {
		return nil, errors.Errorf("decoding documentation of %s: %w", path, err)
	}
	return documentation, nil
}

// DecodeDocumentation converts a generic documentation map into a
// Documentation. Single strings are accepted where lists are expected and
// yes/no where booleans are.
func DecodeDocumentation(raw interface{}) (*Documentation, error) {
	if map_, ok := raw.(map[string]interface{}); ok {
		if inner, ok := map_["DOCUMENTATION"]; ok {
			raw = inner
		}
	}
	if block, ok := raw.(string); ok {
		raw = nil
		if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		return nil, errors.New("empty documentation")
	}

	var documentation Documentation
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       yesNoHook,
		WeaklyTypedInput: true,
		Result:           &documentation,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	setOptionNames(documentation.Options)
	return &documentation, nil
}

func yesNoHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(data.(string)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return data, nil
}

func pythonDocumentation(source string) (string, bool) {
	match := documentationAssignment.FindStringSubmatchIndex(source)
	if match == nil {
		return "", false
	}
	quote := source[match[2]:match[3]]
	body := source[match[1]:]
	end := strings.Index(body, quote)
	if end < 0 {
		return "", false
	}
	return body[:end], true
}
