// Package docs provides generated OpenAPI documentation.
//
// Wandr API
//
//	@title			Wandr API
//	@version		1.0
//	@description	Place extraction pipeline API for processing short-form video posts into structured place pages.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/wandr
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/wandr/serve.go -o ./swagger --parseDependency --parseInternal
