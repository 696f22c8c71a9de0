// Package types defines the entity types, scope shapes, read contracts, and
// standard errors for the metadata schema resolution engine.
//
// Fields, options, and override rows are owned by the surrounding platform;
// the engine only reads them through the Catalog interfaces declared here and
// derives ResolvedSchema values from them.
package types
