package metaschema

// Version is the release of the metaschema engine and CLI.
const Version = "0.3.0"
