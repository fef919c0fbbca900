// Package api holds the OpenAPI description of the HTTP surface.
package api

import _ "embed"

// OpenAPI is api/openapi.yaml as built into the binary.
//
//go:embed openapi.yaml
var OpenAPI []byte
