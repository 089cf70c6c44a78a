// Package hover answers hover requests on Ansible playbooks, task files and
// roles with keyword, module and module option documentation.
package hover

import (
	contextpkg "context"

	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/ansible"
	"github.com/tminor/lspansible/docs"
	"github.com/tminor/lspansible/format"
	"github.com/tminor/lspansible/yamlpath"
)

var log = logging.MustGetLogger("ansible-lsp.hover")

// Resolver holds no per-request state and may serve concurrent requests.
type Resolver struct {
	Keywords     *ansible.Keywords
	Library      docs.Library
	ReferenceURL string
}

func NewResolver(keywords *ansible.Keywords, library docs.Library, referenceURL string) *Resolver {
	if keywords == nil {
		keywords = ansible.Default()
	}
	if referenceURL == "" {
		referenceURL = format.DefaultReferenceURL
	}
	return &Resolver{
		Keywords:     keywords,
		Library:      library,
		ReferenceURL: referenceURL,
	}
}

// Resolve returns the hover for position in text, or nil when there is
// nothing documented under the cursor. It never fails: lookup errors count as
// misses.
func (self *Resolver) Resolve(context contextpkg.Context, text string, documentURI protocol.DocumentUri, position protocol.Position) *protocol.Hover {
	documents, err := yamlpath.Parse(text)
	if err != nil {
		log.Debugf("%s: %s", documentURI, err.Error())
	}

	path := yamlpath.PathAt(documents, yamlpath.FromProtocol(position))
	node := path.Last()
	if node == nil || node.Kind != yamlpath.Scalar {
		return nil
	}
	// Keys only, never values
	if yamlpath.NewAncestry(path).ParentOfKey().Get() == nil {
		return nil
	}

	if self.Keywords.IsPlayParam(path) {
		return keywordHover(node, self.Keywords.Play)
	}

	if self.Keywords.IsBlockParam(path) {
		return keywordHover(node, self.Keywords.Block)
	}

	if self.Keywords.IsRoleParam(path) {
		return keywordHover(node, self.Keywords.Role)
	}

	if self.Keywords.IsTaskParam(path) {
		if self.Keywords.IsTaskKeyword(node.Text) {
			return keywordHover(node, self.Keywords.Task)
		}
		if hover := self.moduleHover(context, node, path, documentURI); hover != nil {
			return hover
		}
	}

	return self.optionHover(context, node, path, documentURI)
}

func keywordHover(node *yamlpath.Node, table ansible.Table) *protocol.Hover {
	content, ok := format.Keyword(table[node.Text])
	if !ok {
		return nil
	}
	range_ := node.Span.Range()
	return &protocol.Hover{
		Contents: content,
		Range:    &range_,
	}
}

func (self *Resolver) moduleHover(context contextpkg.Context, node *yamlpath.Node, path yamlpath.Path, documentURI protocol.DocumentUri) *protocol.Hover {
	module, hitFQCN := self.findModule(context, node.Text, path, documentURI)

	if module != nil && module.Documentation != nil {
		routeFQCN := hitFQCN
		if routeFQCN == "" {
			routeFQCN = node.Text
		}
		range_ := node.Span.Range()
		return &protocol.Hover{
			Contents: format.Module(module.Documentation, module.FQCN, self.Library.ModuleRoute(routeFQCN), self.ReferenceURL),
			Range:    &range_,
		}
	}

	if hitFQCN != "" {
		if route := self.Library.ModuleRoute(hitFQCN); route != nil && (route.Tombstone != nil || route.Deprecation != nil) {
			range_ := node.Span.Range()
			return &protocol.Hover{
				Contents: format.Tombstone(route),
				Range:    &range_,
			}
		}
	}

	return nil
}

// optionHover handles keys of a module's parameter mapping, given either
// directly under the module or under args.
func (self *Resolver) optionHover(context contextpkg.Context, node *yamlpath.Node, path yamlpath.Path, documentURI protocol.DocumentUri) *protocol.Hover {
	parentKeyPath := yamlpath.NewAncestry(path).ParentOfKey().ParentOf(yamlpath.Mapping).KeyPath()
	if parentKeyPath == nil || !self.Keywords.IsTaskParam(parentKeyPath) {
		return nil
	}
	parentKey := parentKeyPath.Last()
	if parentKey.Kind != yamlpath.Scalar {
		return nil
	}

	var module *docs.Module
	if parentKey.Text == "args" {
		module = self.providedModule(context, parentKeyPath, documentURI)
	} else {
		module, _ = self.findModule(context, parentKey.Text, parentKeyPath, documentURI)
	}
	if module == nil || module.Documentation == nil {
		return nil
	}

	option := module.Documentation.Options[node.Text]
	if option == nil {
		return nil
	}
	return &protocol.Hover{
		Contents: format.Option(option, true),
	}
}

// providedModule finds the module an args mapping belongs to: the first key of
// the task that is not a keyword and names a documented module.
func (self *Resolver) providedModule(context contextpkg.Context, argsPath yamlpath.Path, documentURI protocol.DocumentUri) *docs.Module {
	task := yamlpath.NewAncestry(argsPath).ParentOfKey()
	for _, key := range yamlpath.MapKeys(task.Get()) {
		if self.Keywords.IsTaskKeyword(key) {
			continue
		}
		keyPath := task.ChildKey(key)
		if keyPath == nil {
			continue
		}
		if module, _ := self.findModule(context, key, keyPath, documentURI); module != nil && module.Documentation != nil {
			return module
		}
	}
	return nil
}

func (self *Resolver) findModule(context contextpkg.Context, name string, path yamlpath.Path, documentURI protocol.DocumentUri) (*docs.Module, string) {
	if self.Library == nil {
		return nil, ""
	}
	module, fqcn, err := self.Library.FindModule(context, name, path, documentURI)
	if err != nil {
		log.Debugf("looking up module %s: %s", name, err.Error())
		return nil, ""
	}
	return module, fqcn
}
