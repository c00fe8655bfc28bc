package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
)

var (
	applyPatchToolName    = "apply_patch"
	applyPatchDescription = "Apply SEARCH/REPLACE diff blocks to an HTML document. Blocks whose search text is not found are skipped. Returns the patched document and the 1-indexed line ranges that changed."

	listModelsToolName    = "list_models"
	listModelsDescription = "List the models and inference providers available for generation."
)

// ApplyPatchInput represents the input arguments for apply_patch.
type ApplyPatchInput struct {
	HTML  string `json:"html" jsonschema:"the current HTML document"`
	Patch string `json:"patch" jsonschema:"model output containing one or more SEARCH/REPLACE blocks"`
	Diff  bool   `json:"diff,omitempty" jsonschema:"also return a line diff of the change"`
}

// ApplyPatchOutput is the patched document.
type ApplyPatchOutput struct {
	HTML          string            `json:"html"`
	UpdatedLines  []patch.LineRange `json:"updatedLines"`
	BlocksFound   int               `json:"blocksFound"`
	BlocksApplied int               `json:"blocksApplied"`
	Diff          string            `json:"diff,omitempty"`
}

// ListModelsInput takes no arguments.
type ListModelsInput struct{}

// ListModelsOutput mirrors the catalog.
type ListModelsOutput struct {
	DefaultProvider string             `json:"defaultProvider"`
	Providers       []catalog.Provider `json:"providers"`
	Models          []catalog.Model    `json:"models"`
}

func (s *Server) handleApplyPatch(_ context.Context, _ *mcp.CallToolRequest, input ApplyPatchInput) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	blocks := patch.ParseBlocks(input.Patch)
	res := patch.Apply(input.HTML, input.Patch)

	out := ApplyPatchOutput{
		HTML:          res.HTML,
		UpdatedLines:  res.UpdatedLines,
		BlocksFound:   len(blocks),
		BlocksApplied: len(res.UpdatedLines),
	}
	if input.Diff {
		out.Diff = patch.Preview(input.HTML, res.HTML)
	}

	s.config.Logger.Debug("MCP apply_patch",
		"blocks_found", out.BlocksFound,
		"blocks_applied", out.BlocksApplied,
	)
	return textResult(out)
}

func (s *Server) handleListModels(_ context.Context, _ *mcp.CallToolRequest, _ ListModelsInput) (*mcp.CallToolResult, ListModelsOutput, error) {
	c := s.config.Catalog
	return textResult(ListModelsOutput{
		DefaultProvider: c.DefaultProvider,
		Providers:       c.Providers,
		Models:          c.Models,
	})
}

// textResult returns out both as structured content and as serialized JSON
// in a TextContent block for clients without structured output support.
func textResult[T any](out T) (*mcp.CallToolResult, T, error) {
	raw, err := json.Marshal(out)
	if err != nil {
		var zero T
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)}},
		}, zero, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}, out, nil
}
