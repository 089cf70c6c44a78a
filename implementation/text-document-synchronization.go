package implementation

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// TextDocumentDidOpen implements protocol.TextDocumentDidOpenFunc
func TextDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	setDocument(params.TextDocument.URI, params.TextDocument.Text)
	deleteDocumentState(params.TextDocument.URI)
	validateDocumentState(params.TextDocument.URI, params.TextDocument.Version, context.Notify)
	return nil
}

// TextDocumentDidChange implements protocol.TextDocumentDidChangeFunc
func TextDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if content, ok := getDocument(params.TextDocument.URI); ok {
		content = applyChanges(content, params.ContentChanges)
		setDocument(params.TextDocument.URI, content)
		deleteDocumentState(params.TextDocument.URI)
		validateDocumentState(params.TextDocument.URI, params.TextDocument.Version, context.Notify)
	}
	return nil
}

func applyChanges(content string, changes []any) string {
	for _, change := range changes {
		if change_, ok := change.(protocol.TextDocumentContentChangeEvent); ok {
			if change_.Range == nil {
				content = change_.Text
				continue
			}
			startIndex, endIndex := rangeToIndex(content, change_.Range)
			content = content[:startIndex] + change_.Text + content[endIndex:]
		} else if change_, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			content = change_.Text
		}
	}
	return content
}

// TextDocumentDidSave implements protocol.TextDocumentDidSaveFunc
func TextDocumentDidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	return nil
}

// TextDocumentDidClose implements protocol.TextDocumentDidCloseFunc
func TextDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	deleteDocumentState(params.TextDocument.URI)
	deleteDocument(params.TextDocument.URI)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}
