// Package docs registers the Swagger 2.0 document for the contact API with
// swag, in the shape `swag init` emits. swagger.json follows the handler
// annotations; regenerate with
//
//	swag init -g internal/http/handlers/contact_handler.go -o internal/docs
//
// and keep the template delimiters below.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo holds the exported Swagger info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Contact API",
	Description:      "Contact form endpoint: validation, per-client rate limit and mail dispatch.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
