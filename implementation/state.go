package implementation

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/yamlpath"
)

type DocumentState struct {
	Version     protocol.UInteger
	Diagnostics []protocol.Diagnostic
}

var documentStates sync.Map // protocol.DocumentUri to DocumentState

// validateDocumentState publishes the diagnostics of a new document version.
// It runs on the handler goroutine, so publications follow the order of edits.
func validateDocumentState(uri protocol.DocumentUri, version protocol.Integer, notify glsp.NotifyFunc) *DocumentState {
	documentState, created := _getOrCreateDocumentState(uri, version)

	if created {
		version_ := documentState.Version
		notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Version:     &version_,
			Diagnostics: documentState.Diagnostics,
		})
	}

	return documentState
}

func deleteDocumentState(uri protocol.DocumentUri) {
	documentStates.Delete(uri)
}

func _getOrCreateDocumentState(uri protocol.DocumentUri, version protocol.Integer) (*DocumentState, bool) {
	if documentState, ok := documentStates.Load(uri); ok {
		return documentState.(*DocumentState), false
	} else {
		documentState := _createDocumentState(uri, version)
		if existing, loaded := documentStates.LoadOrStore(uri, documentState); loaded {
			return existing.(*DocumentState), false
		} else {
			return documentState, true
		}
	}
}

func _createDocumentState(uri protocol.DocumentUri, version protocol.Integer) *DocumentState {
	content, _ := getDocument(uri)
	if version < 0 {
		version = 0
	}
	return &DocumentState{
		Version:     protocol.UInteger(version),
		Diagnostics: createDiagnostics(content),
	}
}

// createDiagnostics reports the first YAML syntax error of content, on the
// line the parser names.
func createDiagnostics(content string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	_, err := yamlpath.Parse(content)
	if err == nil {
		return diagnostics
	}

	message := err.Error()
	log.Debugf("%s", message)

	lines := strings.Split(content, "\n")
	line, _ := yamlpath.ErrorLine(err)
	if line >= len(lines) {
		line = len(lines) - 1
	}

	severity := protocol.DiagnosticSeverityError
	source := lsName
	diagnostics = append(diagnostics, protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line)},
			End: protocol.Position{
				Line:      protocol.UInteger(line),
				Character: protocol.UInteger(utf8.RuneCountInString(strings.TrimRight(lines[line], "\r"))),
			},
		},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	})
	return diagnostics
}
