// Package tools provides local tool execution and MCP (Model Context
// Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/agentwire/pkg/tools/toolbox] — Tool type and ToolBox registry for registering, listing, and executing tools against tool call requests
//   - [github.com/germanamz/agentwire/pkg/tools/mcpclient] — MCP client using the official MCP Go SDK for importing tools from external MCP servers
//
// The toolbox sub-package is the foundation layer; mcpclient converts the
// tools an MCP server advertises into toolbox entries.
package tools
