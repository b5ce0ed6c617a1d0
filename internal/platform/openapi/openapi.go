package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ccdaextract/internal/platform/ccda"
)

// Generator builds the OpenAPI 3.0 document for the extraction API. Table
// schemas are derived from the engine's domain columns.
type Generator struct {
	version string
	baseURL string
}

// NewGenerator creates a new OpenAPI spec generator.
func NewGenerator(version, baseURL string) *Generator {
	return &Generator{version: version, baseURL: baseURL}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	idParam := map[string]interface{}{
		"name": "id", "in": "path", "required": true,
		"schema": map[string]string{"type": "string", "format": "uuid"},
	}

	paths := map[string]interface{}{
		"/ccda/parse": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Parse a C-CDA document",
				"operationId": "parseCCDA",
				"tags":        []string{"ccda"},
				"requestBody": xmlRequestBody(),
				"responses": map[string]interface{}{
					"200": jsonResponse("Domain tables and parse metadata", "#/components/schemas/Analysis"),
					"400": jsonResponse("Document rejected", "#/components/schemas/Analysis"),
					"413": jsonResponse("Document too large", "#/components/schemas/Error"),
				},
			},
		},
		"/extractions": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Parse and record a C-CDA document",
				"operationId": "createExtraction",
				"tags":        []string{"extractions"},
				"parameters": []map[string]interface{}{
					{"name": "source", "in": "query", "schema": map[string]string{"type": "string"}, "description": "Name recorded with the run"},
				},
				"requestBody": xmlRequestBody(),
				"responses": map[string]interface{}{
					"201": jsonResponse("Run recorded", "#/components/schemas/ExtractionRun"),
					"400": jsonResponse("Document rejected; the run is still recorded", "#/components/schemas/ExtractionRun"),
				},
			},
			"get": map[string]interface{}{
				"summary":     "List recorded runs, newest first",
				"operationId": "listExtractions",
				"tags":        []string{"extractions"},
				"parameters":  paginationParameters(),
				"responses": map[string]interface{}{
					"200": jsonResponse("Page of run summaries", "#/components/schemas/ExtractionRunList"),
				},
			},
		},
		"/extractions/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Read a recorded run with its tables",
				"operationId": "getExtraction",
				"tags":        []string{"extractions"},
				"parameters":  []map[string]interface{}{idParam},
				"responses": map[string]interface{}{
					"200": jsonResponse("Run", "#/components/schemas/ExtractionRun"),
					"404": jsonResponse("Not found", "#/components/schemas/Error"),
				},
			},
		},
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "C-CDA Extraction API",
			"version":     g.version,
			"description": "Extracts clinical fact tables from C-CDA documents",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": buildComponentSchemas(),
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
		"security": []map[string][]string{{"bearerAuth": {}}},
	}
}

func xmlRequestBody() map[string]interface{} {
	return map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/xml": map[string]interface{}{
				"schema": map[string]string{"type": "string"},
			},
		},
	}
}

func jsonResponse(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": schemaRef},
			},
		},
	}
}

func paginationParameters() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "limit", "in": "query", "schema": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100}},
		{"name": "offset", "in": "query", "schema": map[string]interface{}{"type": "integer", "minimum": 0}},
	}
}

func stringProps(names ...string) map[string]interface{} {
	props := make(map[string]interface{}, len(names))
	for _, n := range names {
		props[n] = map[string]string{"type": "string"}
	}
	return props
}

// tableSchemaName maps a domain to its row schema name, e.g.
// functional_status -> FunctionalStatusRow.
func tableSchemaName(domain string) string {
	out := make([]byte, 0, len(domain)+3)
	upper := true
	for i := 0; i < len(domain); i++ {
		ch := domain[i]
		if ch == '_' {
			upper = true
			continue
		}
		if upper && ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upper = false
		out = append(out, ch)
	}
	return string(out) + "Row"
}

func buildComponentSchemas() map[string]interface{} {
	schemas := make(map[string]interface{})

	tableProps := make(map[string]interface{}, len(ccda.Domains))
	for _, d := range ccda.Domains {
		name := tableSchemaName(d)
		schemas[name] = map[string]interface{}{
			"type":       "object",
			"properties": stringProps(ccda.DomainColumns(d)...),
		}
		tableProps[d] = map[string]interface{}{
			"type":  "array",
			"items": map[string]string{"$ref": "#/components/schemas/" + name},
		}
	}
	schemas["Tables"] = map[string]interface{}{
		"type":       "object",
		"properties": tableProps,
	}

	counts := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": map[string]string{"type": "integer"},
	}
	sections := map[string]interface{}{
		"type":  "array",
		"items": map[string]string{"type": "string"},
	}

	schemas["ParseMetadata"] = map[string]interface{}{
		"type":     "object",
		"required": []string{"status", "reason"},
		"properties": map[string]interface{}{
			"status":         map[string]interface{}{"type": "string", "enum": []string{ccda.StatusParsed, ccda.StatusRejected}},
			"reason":         map[string]string{"type": "string"},
			"sections_found": sections,
			"counts":         counts,
		},
	}
	schemas["Analysis"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tables":   map[string]string{"$ref": "#/components/schemas/Tables"},
			"metadata": map[string]string{"$ref": "#/components/schemas/ParseMetadata"},
		},
	}
	schemas["ExtractionRun"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":             map[string]string{"type": "string", "format": "uuid"},
			"source_name":    map[string]string{"type": "string"},
			"status":         map[string]string{"type": "string"},
			"reason":         map[string]string{"type": "string"},
			"sections_found": sections,
			"counts":         counts,
			"tables":         map[string]string{"$ref": "#/components/schemas/Tables"},
			"created_at":     map[string]string{"type": "string", "format": "date-time"},
		},
	}
	schemas["ExtractionRunList"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"data": map[string]interface{}{
				"type":  "array",
				"items": map[string]string{"$ref": "#/components/schemas/ExtractionRun"},
			},
			"total":    map[string]string{"type": "integer"},
			"limit":    map[string]string{"type": "integer"},
			"offset":   map[string]string{"type": "integer"},
			"has_more": map[string]string{"type": "boolean"},
			"links":    map[string]interface{}{"type": "object", "properties": stringProps("self", "next", "previous")},
		},
	}
	schemas["Error"] = map[string]interface{}{
		"type":       "object",
		"properties": stringProps("error", "message"),
	}

	return schemas
}

// RegisterRoutes registers GET /openapi.json on the group.
func (g *Generator) RegisterRoutes(apiGroup *echo.Group) {
	apiGroup.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
}
