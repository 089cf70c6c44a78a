package docs

import (
	contextpkg "context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/op/go-logging"
	"github.com/spf13/afero"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/ansible"
	"github.com/tminor/lspansible/yamlpath"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var log = logging.MustGetLogger("ansible-lsp.docs")

const (
	builtinNamespace  = "ansible"
	builtinCollection = "builtin"
	maxRedirects      = 5
	DefaultCacheSize  = 256
)

const (
	builtinModulePattern     = "modules/**/*.{py,yml,yaml,json,jsonnet}"
	builtinRuntimePath       = "config/ansible_builtin_runtime.yml"
	collectionModulePattern  = "*/*/plugins/modules/**/*.{py,yml,yaml,json,jsonnet}"
	collectionRuntimePattern = "*/*/meta/runtime.yml"
)

var docExtensions = []string{".yml", ".yaml", ".jsonnet", ".json", ".py"}

type Options struct {
	// Builtin is the ansible package directory (holding modules/ and
	// config/), indexed as ansible.builtin.
	Builtin string
	// Collections are ansible_collections directories.
	Collections   []string
	CacheSize     int
	LookupTimeout time.Duration
}

// FileLibrary is a Library over module files on an afero filesystem.
type FileLibrary struct {
	fs      afero.Fs
	options Options
	cache   *lru.Cache[string, *Documentation]

	lock    sync.RWMutex
	modules map[string]*Module
	routes  map[string]*Route
}

func NewFileLibrary(fs afero.Fs, options Options) (*FileLibrary, error) {
	if options.CacheSize <= 0 {
		options.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Documentation](options.CacheSize)
	if err != nil {
		return nil, errors.Errorf("creating documentation cache: %w", err)
	}
	return &FileLibrary{
		fs:      fs,
		options: options,
		cache:   cache,
		modules: make(map[string]*Module),
		routes:  make(map[string]*Route),
	}, nil
}

// Load (re)builds the module and routing index from the configured roots and
// drops cached documentation. Unreadable files are logged and skipped.
func (self *FileLibrary) Load(context contextpkg.Context) error {
	index := newIndex()
	group, groupContext := errgroup.WithContext(context)

	if self.options.Builtin != "" {
		root := self.options.Builtin
		group.Go(func() error {
			return self.indexBuiltin(groupContext, root, index)
		})
	}
	for _, root := range self.options.Collections {
		root := root
		group.Go(func() error {
			return self.indexCollections(groupContext, root, index)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	for _, err := range multierr.Errors(index.errs) {
		log.Warningf("%s", err.Error())
	}

	self.lock.Lock()
	self.modules = index.modules
	self.routes = index.routes
	self.lock.Unlock()
	self.cache.Purge()

	log.Infof("indexed %d modules and %d routes", len(index.modules), len(index.routes))
	return nil
}

// Library interface
func (self *FileLibrary) ModuleRoute(fqcn string) *Route {
	self.lock.RLock()
	defer self.lock.RUnlock()
	return self.routes[fqcn]
}

// Library interface
func (self *FileLibrary) FindModule(context contextpkg.Context, name string, contextPath yamlpath.Path, documentURI protocol.DocumentUri) (*Module, string, error) {
	if self.options.LookupTimeout > 0 {
		var cancel contextpkg.CancelFunc
		context, cancel = contextpkg.WithTimeout(context, self.options.LookupTimeout)
		defer cancel()
	}

	if module := self.localModule(name, documentURI); module != nil {
		module, err := self.withDocumentation(context, module)
		if err != nil {
			return nil, "", err
		}
		return module, module.FQCN, nil
	}

	if err := context.Err(); err != nil {
		return nil, "", err
	}

	hit, module := self.resolve(Candidates(name, ansible.DeclaredCollections(contextPath)))
	if module == nil {
		return nil, hit, nil
	}

	module, err := self.withDocumentation(context, module)
	if err != nil {
		return nil, "", err
	}
	return module, hit, nil
}

// Candidates lists the FQCNs a module name used in a task may refer to, in
// lookup order.
func Candidates(name string, collections []string) []string {
	if _, _, _, ok := SplitFQCN(name); ok {
		return []string{name}
	}
	candidates := []string{builtinNamespace + "." + builtinCollection + "." + name}
	for _, collection := range collections {
		candidates = append(candidates, collection+"."+name)
	}
	return candidates
}

func (self *FileLibrary) resolve(candidates []string) (string, *Module) {
	self.lock.RLock()
	defer self.lock.RUnlock()

	hit := ""
	for _, candidate := range candidates {
		if _, ok := self.routes[candidate]; ok {
			hit = candidate
			break
		}
	}
	if hit == "" {
		for _, candidate := range candidates {
			if _, ok := self.modules[candidate]; ok {
				hit = candidate
				break
			}
		}
	}
	if hit == "" {
		return "", nil
	}

	target := hit
	for i := 0; i <= maxRedirects; i++ {
		if module, ok := self.modules[target]; ok {
			return hit, module
		}
		route := self.routes[target]
		if route == nil || route.Redirect == "" {
			break
		}
		target = route.Redirect
	}
	return hit, nil
}

// localModule looks for name in the library directories next to the document
// and next to the role the document belongs to.
func (self *FileLibrary) localModule(name string, documentURI protocol.DocumentUri) *Module {
	if name == "" || strings.ContainsAny(name, "./\\") {
		return nil
	}
	path := documentPath(documentURI)
	if path == "" {
		return nil
	}

	directories := []string{filepath.Join(filepath.Dir(path), "library")}
	if role := roleDirectory(path); role != "" {
		directories = append(directories, filepath.Join(role, "library"))
	}

	for _, directory := range directories {
		for _, extension := range docExtensions {
			source := filepath.Join(directory, name+extension)
			if exists, _ := afero.Exists(self.fs, source); exists {
				return &Module{Source: source, FQCN: name, Name: name}
			}
		}
	}
	return nil
}

type loaded struct {
	documentation *Documentation
	err           error
}

// withDocumentation returns a copy of module carrying its parsed
// documentation. A file that does not parse yields a nil Documentation; only
// context errors are returned.
func (self *FileLibrary) withDocumentation(context contextpkg.Context, module *Module) (*Module, error) {
	module_ := *module

	if documentation, ok := self.cache.Get(module.Source); ok {
		module_.Documentation = documentation
		return &module_, nil
	}

	result := make(chan loaded, 1)
	go func() {
		documentation, err := ReadDocumentation(self.fs, module.Source)
		result <- loaded{documentation, err}
	}()

	select {
	case <-context.Done():
		return nil, errors.Errorf("loading documentation of %s: %w", module.FQCN, context.Err())

	case outcome := <-result:
		if outcome.err != nil {
			log.Warningf("%s", outcome.err.Error())
			return &module_, nil
		}
		self.cache.Add(module.Source, outcome.documentation)
		module_.Documentation = outcome.documentation
		return &module_, nil
	}
}

func documentPath(documentURI protocol.DocumentUri) string {
	uri, err := url.Parse(documentURI)
	if err != nil || uri.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(uri.Path)
}

// roleDirectory returns the directory of the role path is in, if any.
func roleDirectory(path string) string {
	directory := filepath.Dir(path)
	for {
		parent := filepath.Dir(directory)
		if parent == directory {
			return ""
		}
		if filepath.Base(parent) == "roles" {
			return directory
		}
		directory = parent
	}
}

//
// index
//

type index struct {
	lock    sync.Mutex
	modules map[string]*Module
	routes  map[string]*Route
	errs    error
}

func newIndex() *index {
	return &index{
		modules: make(map[string]*Module),
		routes:  make(map[string]*Route),
	}
}

func (self *index) addModule(module *Module) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if existing, ok := self.modules[module.FQCN]; ok && extensionRank(existing.Source) <= extensionRank(module.Source) {
		return
	}
	self.modules[module.FQCN] = module
}

func (self *index) addRoute(fqcn string, route *Route) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.routes[fqcn] = route
}

func (self *index) addError(err error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.errs = multierr.Append(self.errs, err)
}

// Sidecar documentation wins over the module source.
func extensionRank(path string) int {
	extension := filepath.Ext(path)
	for rank, extension_ := range docExtensions {
		if extension == extension_ {
			return rank
		}
	}
	return len(docExtensions)
}

func moduleName(path string) (string, bool) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	return name, true
}

// walk calls visit with the slash separated path, relative to root, of every
// file below root.
func (self *FileLibrary) walk(context contextpkg.Context, root string, index *index, visit func(path string, relative string)) error {
	err := afero.Walk(self.fs, root, func(path string, info os.FileInfo, err error) error {
		if err := context.Err(); err != nil {
			return err
		}
		if err != nil {
			index.addError(errors.Errorf("walking %s: %w", path, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		visit(path, filepath.ToSlash(relative))
		return nil
	})
	if contextErr := context.Err(); contextErr != nil {
		return contextErr
	}
	if err != nil {
		index.addError(errors.Errorf("walking %s: %w", root, err))
	}
	return nil
}

func (self *FileLibrary) indexBuiltin(context contextpkg.Context, root string, index *index) error {
	return self.walk(context, root, index, func(path string, relative string) {
		if match, _ := doublestar.Match(builtinModulePattern, relative); match {
			if name, ok := moduleName(path); ok {
				index.addModule(&Module{
					Source:     path,
					FQCN:       builtinNamespace + "." + builtinCollection + "." + name,
					Namespace:  builtinNamespace,
					Collection: builtinCollection,
					Name:       name,
				})
			}
		} else if relative == builtinRuntimePath {
			self.indexRuntime(path, builtinNamespace, builtinCollection, index)
		}
	})
}

func (self *FileLibrary) indexCollections(context contextpkg.Context, root string, index *index) error {
	return self.walk(context, root, index, func(path string, relative string) {
		parts := strings.SplitN(relative, "/", 3)
		if len(parts) < 3 {
			return
		}
		namespace, collection := parts[0], parts[1]

		if match, _ := doublestar.Match(collectionModulePattern, relative); match {
			if name, ok := moduleName(path); ok {
				index.addModule(&Module{
					Source:     path,
					FQCN:       namespace + "." + collection + "." + name,
					Namespace:  namespace,
					Collection: collection,
					Name:       name,
				})
			}
		} else if match, _ := doublestar.Match(collectionRuntimePattern, relative); match {
			self.indexRuntime(path, namespace, collection, index)
		}
	})
}

type runtimeFile struct {
	PluginRouting struct {
		Modules map[string]*Route `yaml:"modules"`
	} `yaml:"plugin_routing"`
}

func (self *FileLibrary) indexRuntime(path string, namespace string, collection string, index *index) {
	content, err := afero.ReadFile(self.fs, path)
	if err != nil {
		index.addError(errors.Errorf("reading %s: %w", path, err))
		return
	}

	var runtime runtimeFile
	if err := yaml.Unmarshal(content, &runtime); err != nil {
		index.addError(errors.Errorf("decoding %s: %w", path, err))
		return
	}

	for name, route := range runtime.PluginRouting.Modules {
		if route == nil {
			continue
		}
		if route.Redirect != "" {
			if _, _, _, ok := SplitFQCN(route.Redirect); !ok {
				route.Redirect = namespace + "." + collection + "." + route.Redirect
			}
		}
		index.addRoute(namespace+"."+collection+"."+name, route)
	}
}
