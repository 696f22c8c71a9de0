// Command metaschema is the operator CLI for the metadata schema engine.
package main

import "github.com/mesh-intelligence/metaschema/internal/cli"

func main() {
	cli.Execute()
}
