package runtime

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// APIDescriptor is one entry in the static Runtime API manifest (design
// note 9's "decorator-driven metadata" realized as a plain Go table instead
// of reflection over struct tags/decorators, since the host language here is
// Starlark, not the original decorator-bearing target).
type APIDescriptor struct {
	Namespace   string
	Name        string
	Sequenced   bool
	Description string
	InputSchema *jsonschema.Schema
}

// FullName returns "namespace.name", the identifier agent programs call
// (e.g. "llm.complete").
func (d APIDescriptor) FullName() string {
	return d.Namespace + "." + d.Name
}

// LLMCompleteInput, ApprovalRequestInput, ToolInvokeInput, CacheSetInput are
// the parameter shapes the manifest generates JSON Schema for, so a
// transform-time or client-side validator can check a call site's arguments
// before submission.
type LLMCompleteInput struct {
	Prompt  string         `json:"prompt" jsonschema:"the prompt sent to the model"`
	Options map[string]any `json:"options,omitempty" jsonschema:"provider-specific sampling options"`
}

type ApprovalRequestInput struct {
	Message string         `json:"message" jsonschema:"the question shown to the reviewer"`
	Context map[string]any `json:"context,omitempty"`
}

type ToolInvokeInput struct {
	Name  string         `json:"name" jsonschema:"registered tool name"`
	Input map[string]any `json:"input,omitempty"`
}

type CacheSetInput struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Catalog is the full Runtime API manifest, built once at process start.
var Catalog = buildCatalog()

func buildCatalog() []APIDescriptor {
	llmSchema, _ := jsonschema.For[LLMCompleteInput](nil)
	approvalSchema, _ := jsonschema.For[ApprovalRequestInput](nil)
	toolSchema, _ := jsonschema.For[ToolInvokeInput](nil)
	cacheSetSchema, _ := jsonschema.For[CacheSetInput](nil)

	return []APIDescriptor{
		{Namespace: "llm", Name: "complete", Sequenced: true, Description: "request a model completion", InputSchema: llmSchema},
		{Namespace: "approval", Name: "request", Sequenced: true, Description: "request human approval", InputSchema: approvalSchema},
		{Namespace: "progress", Name: "report", Sequenced: false, Description: "emit a fire-and-forget progress update"},
		{Namespace: "embedding", Name: "embed", Sequenced: true, Description: "embed a single string"},
		{Namespace: "embedding", Name: "embedBatch", Sequenced: true, Description: "embed many strings in one round trip"},
		{Namespace: "tool", Name: "invoke", Sequenced: true, Description: "invoke a registered tool", InputSchema: toolSchema},
		{Namespace: "cache", Name: "get", Sequenced: true, Description: "read an external cache key"},
		{Namespace: "cache", Name: "set", Sequenced: true, Description: "write an external cache key", InputSchema: cacheSetSchema},
	}
}

// Lookup finds a descriptor by its "namespace.name" identifier.
func Lookup(fullName string) (APIDescriptor, bool) {
	for _, d := range Catalog {
		if d.FullName() == fullName {
			return d, true
		}
	}
	return APIDescriptor{}, false
}
