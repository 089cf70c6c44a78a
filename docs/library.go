// Package docs indexes Ansible module documentation and resolves module names
// the way Ansible does: short names, declared collections, playbook-local
// library directories and plugin routing.
package docs

import (
	contextpkg "context"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/yamlpath"
)

// Library answers documentation queries for the hover resolver.
type Library interface {
	// FindModule resolves a module name used in a task. contextPath is the
	// path to the key naming the module and is used to find declared
	// collections; documentURI scopes playbook-local modules. It returns the
	// module, if any, and the canonical FQCN the name resolved to, which is
	// set even when the module itself has no documentation.
	FindModule(context contextpkg.Context, name string, contextPath yamlpath.Path, documentURI protocol.DocumentUri) (*Module, string, error)

	// ModuleRoute returns the plugin routing entry for a module FQCN.
	ModuleRoute(fqcn string) *Route
}

type Module struct {
	// Source is the file the documentation is read from.
	Source        string
	FQCN          string
	Namespace     string
	Collection    string
	Name          string
	Documentation *Documentation
}

type Documentation struct {
	Module           string             `mapstructure:"module"`
	ShortDescription string             `mapstructure:"short_description"`
	Description      []string           `mapstructure:"description"`
	VersionAdded     string             `mapstructure:"version_added"`
	Author           []string           `mapstructure:"author"`
	Requirements     []string           `mapstructure:"requirements"`
	Notes            []string           `mapstructure:"notes"`
	Deprecated       *Deprecation       `mapstructure:"deprecated"`
	Options          map[string]*Option `mapstructure:"options"`
}

type Deprecation struct {
	RemovedIn     string `mapstructure:"removed_in"`
	RemovedAtDate string `mapstructure:"removed_at_date"`
	Why           string `mapstructure:"why"`
	Alternative   string `mapstructure:"alternative"`
}

type Option struct {
	Name         string             `mapstructure:"-"`
	Description  []string           `mapstructure:"description"`
	Required     bool               `mapstructure:"required"`
	Type         string             `mapstructure:"type"`
	Elements     string             `mapstructure:"elements"`
	Default      interface{}        `mapstructure:"default"`
	Choices      []interface{}      `mapstructure:"choices"`
	Aliases      []string           `mapstructure:"aliases"`
	VersionAdded string             `mapstructure:"version_added"`
	Suboptions   map[string]*Option `mapstructure:"suboptions"`
}

// Route is a plugin_routing entry of a runtime.yml file.
type Route struct {
	Redirect    string       `yaml:"redirect"`
	Deprecation *RouteNotice `yaml:"deprecation"`
	Tombstone   *RouteNotice `yaml:"tombstone"`
}

type RouteNotice struct {
	RemovalVersion string `yaml:"removal_version"`
	RemovalDate    string `yaml:"removal_date"`
	WarningText    string `yaml:"warning_text"`
}

// SplitFQCN splits namespace.collection.name; ok is false for names with
// fewer than three parts.
func SplitFQCN(fqcn string) (namespace string, collection string, name string, ok bool) {
	parts := strings.SplitN(fqcn, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func setOptionNames(options map[string]*Option) {
	for name, option := range options {
		if option == nil {
			continue
		}
		option.Name = name
		setOptionNames(option.Suboptions)
	}
}
