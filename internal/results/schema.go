package results

import "embed"

// SchemaFS embeds the JSON schema describing a well-formed result record.
// The validate command checks files against it before they are committed to
// the results tree.
//
//go:embed result-schema.json
var SchemaFS embed.FS

// SchemaFileName is the embedded schema's file name.
const SchemaFileName = "result-schema.json"
