package mcp

import "github.com/mark3labs/mcp-go/mcp"

var tokenizeToolDef = mcp.NewTool("rule_tokenize",
	mcp.WithDescription("Split a shell command into positioned word and separator tokens. "+
		"Quotes are decoded, nested command substitutions become their own tokens."),
	mcp.WithString("command", mcp.Required(), mcp.Description("The shell command line")),
)

var rewriteToolDef = mcp.NewTool("rule_rewrite",
	mcp.WithDescription("Rewrite one shell command into a Snakemake rule, replacing the tokens "+
		"that spell read and written files with {input}/{output} placeholders."),
	mcp.WithString("command", mcp.Required(), mcp.Description("The shell command line")),
	mcp.WithString("working_dir", mcp.Required(), mcp.Description("Absolute directory the command ran in")),
	mcp.WithArray("reads", mcp.WithStringItems(), mcp.Description("Paths the command read; relative paths are joined with working_dir")),
	mcp.WithArray("writes", mcp.WithStringItems(), mcp.Description("Paths the command wrote; relative paths are joined with working_dir")),
	mcp.WithString("name", mcp.Description("Rule name (default: <rule_prefix>_1)")),
)

var convertToolDef = mcp.NewTool("rule_convert",
	mcp.WithDescription("Convert shournal JSON output (shournal --query --output-format json) "+
		"into a Snakefile. Optionally store the result as a rule set."),
	mcp.WithString("stream", mcp.Required(), mcp.Description("The complete shournal output, HEADER line first")),
	mcp.WithBoolean("rfiles_outside_cwd", mcp.Description("Keep read files outside the working directory (default from config)")),
	mcp.WithBoolean("wfiles_outside_cwd", mcp.Description("Keep written files outside the working directory (default from config)")),
	mcp.WithString("rule_prefix", mcp.Description("Prefix for generated rule names")),
	mcp.WithBoolean("save", mcp.Description("Store the rules as a rule set")),
	mcp.WithString("workspace", mcp.Description("Workspace for the stored rule set (default: \"default\")")),
	mcp.WithString("title", mcp.Description("Title for the stored rule set")),
)

var listToolDef = mcp.NewTool("ruleset_list",
	mcp.WithDescription("List stored rule sets, newest first."),
	mcp.WithString("workspace", mcp.Description("Only list this workspace (default: all)")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var fetchToolDef = mcp.NewTool("ruleset_fetch",
	mcp.WithDescription("Fetch a stored rule set with its rules and rendered Snakefile."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Rule set ID")),
	mcp.WithBoolean("include_snakefile", mcp.Description("Render the Snakefile (default true)")),
)

var exportToolDef = mcp.NewTool("ruleset_export",
	mcp.WithDescription("Write a stored rule set to a Snakefile on disk."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Rule set ID")),
	mcp.WithString("path", mcp.Description("Destination named Snakefile or *.smk (default: ~/.shrule/exports/<workspace>-<id>.smk)")),
)

var deleteToolDef = mcp.NewTool("ruleset_delete",
	mcp.WithDescription("Delete a stored rule set and its rules."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Rule set ID")),
)
