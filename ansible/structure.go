package ansible

import (
	"regexp"

	"github.com/tminor/lspansible/yamlpath"
)

var taskListKey = regexp.MustCompile(`^(tasks|pre_tasks|post_tasks|block|rescue|always|handlers)$`)

// The predicates below take the path to a mapping key and tell which part of
// a playbook the mapping holding that key is.

// IsPlayParam: the mapping is an item of the document's root sequence and
// carries a keyword only plays have.
func (k *Keywords) IsPlayParam(path yamlpath.Path) bool {
	owner := yamlpath.NewAncestry(path).ParentOfKey()
	if len(owner.ParentOf(yamlpath.Sequence).Path()) != 1 {
		return false
	}
	for _, key := range yamlpath.MapKeys(owner.Get()) {
		if k.IsPlayMarker(key) {
			return true
		}
	}
	return false
}

// IsBlockParam: the mapping is a list item with a block key.
func (k *Keywords) IsBlockParam(path yamlpath.Path) bool {
	owner := yamlpath.NewAncestry(path).ParentOfKey()
	mapping := owner.Get()
	if mapping == nil || owner.ParentOf(yamlpath.Sequence).Get() == nil {
		return false
	}
	for _, key := range yamlpath.MapKeys(mapping) {
		if key == "block" {
			return true
		}
	}
	return false
}

// IsRoleParam: the mapping is an item of a roles list.
func (k *Keywords) IsRoleParam(path yamlpath.Path) bool {
	key, ok := yamlpath.NewAncestry(path).
		ParentOfKey().
		ParentOf(yamlpath.Sequence).
		ParentOf(yamlpath.Mapping).
		StringKey()
	return ok && key == "roles"
}

// IsTaskParam: the mapping is an item of a task list, which is either the root
// of a task file or the value of one of the task list keywords, and it is not
// a play, block or role entry.
func (k *Keywords) IsTaskParam(path yamlpath.Path) bool {
	taskList := yamlpath.NewAncestry(path).ParentOfKey().ParentOf(yamlpath.Sequence).Path()
	if taskList == nil {
		return false
	}
	if k.IsPlayParam(path) || k.IsBlockParam(path) || k.IsRoleParam(path) {
		return false
	}
	if len(taskList) == 1 {
		return true
	}
	key, ok := yamlpath.NewAncestry(taskList).ParentOf(yamlpath.Mapping).StringKey()
	return ok && taskListKey.MatchString(key)
}

// DeclaredCollections lists the collections named by collections keywords of
// the mappings along path, innermost first and without duplicates.
func DeclaredCollections(path yamlpath.Path) []string {
	var collections []string
	seen := make(map[string]struct{})
	for i := len(path) - 1; i >= 0; i-- {
		declared := yamlpath.Lookup(path[i], "collections")
		if declared == nil || declared.Kind != yamlpath.Sequence {
			continue
		}
		for _, item := range declared.Items {
			if item.Kind != yamlpath.Scalar || item.Text == "" {
				continue
			}
			if _, ok := seen[item.Text]; ok {
				continue
			}
			seen[item.Text] = struct{}{}
			collections = append(collections, item.Text)
		}
	}
	return collections
}
