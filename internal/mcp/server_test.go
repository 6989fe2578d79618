package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// TestBoolArg verifies tri-state boolean argument parsing: absent and
// non-boolean values yield nil, real booleans come through.
func TestBoolArg(t *testing.T) {
	var req mcp.CallToolRequest
	if got := boolArg(req, "completed"); got != nil {
		t.Errorf("absent arg = %v, want nil", *got)
	}

	req.Params.Arguments = map[string]any{"completed": true}
	got := boolArg(req, "completed")
	if got == nil || !*got {
		t.Errorf("boolArg(true) = %v, want true", got)
	}

	req.Params.Arguments = map[string]any{"completed": false}
	got = boolArg(req, "completed")
	if got == nil || *got {
		t.Errorf("boolArg(false) = %v, want false", got)
	}

	req.Params.Arguments = map[string]any{"completed": "yes"}
	if got := boolArg(req, "completed"); got != nil {
		t.Errorf("non-bool arg = %v, want nil", *got)
	}
}
