package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Generator builds the OpenAPI 3.0 document for the patient API.
type Generator struct {
	version      string
	baseURL      string
	codesEnabled bool
}

// NewGenerator returns a Generator. codesEnabled adds GET /codes/next and
// documents the code field as server-assigned.
func NewGenerator(version, baseURL string, codesEnabled bool) *Generator {
	return &Generator{version: version, baseURL: baseURL, codesEnabled: codesEnabled}
}

func (g *Generator) GenerateSpec() map[string]interface{} {
	ciParam := []map[string]interface{}{
		{"name": "ci", "in": "path", "required": true, "schema": map[string]string{"type": "string"}},
	}

	paths := map[string]interface{}{
		"/patients": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "List patients in insertion order",
				"operationId": "listPatients",
				"tags":        []string{"Patients"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{
						"description": "All patients, or a message when there are none",
						"content": jsonContent(map[string]interface{}{
							"oneOf": []map[string]interface{}{
								{"type": "array", "items": ref("Patient")},
								ref("Message"),
							},
						}),
					},
					"500": errorResponse("Storage failure"),
				},
			},
			"post": map[string]interface{}{
				"summary":     "Create a patient",
				"operationId": "createPatient",
				"tags":        []string{"Patients"},
				"requestBody": map[string]interface{}{
					"required": true,
					"content":  jsonContent(ref("Patient")),
				},
				"responses": map[string]interface{}{
					"200": response("Created", "Patient"),
					"400": errorResponse("A required field is empty"),
					"500": errorResponse("Storage or code service failure"),
				},
			},
		},
		"/patients/{ci}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Get the first patient with this CI",
				"operationId": "getPatient",
				"tags":        []string{"Patients"},
				"parameters":  ciParam,
				"responses": map[string]interface{}{
					"200": response("Success", "Patient"),
					"404": errorResponse("No patient with this CI"),
				},
			},
			"put": map[string]interface{}{
				"summary":     "Change name and last name of the first patient with this CI",
				"operationId": "updatePatient",
				"tags":        []string{"Patients"},
				"parameters":  ciParam,
				"requestBody": map[string]interface{}{
					"required": true,
					"content":  jsonContent(ref("UpdateRequest")),
				},
				"responses": map[string]interface{}{
					"200": response("Updated", "Patient"),
					"404": errorResponse("No patient with this CI"),
				},
			},
			"delete": map[string]interface{}{
				"summary":     "Delete every patient with this CI",
				"operationId": "deletePatient",
				"tags":        []string{"Patients"},
				"parameters":  ciParam,
				"responses": map[string]interface{}{
					"200": response("Deleted", "Message"),
					"404": errorResponse("No patient with this CI"),
				},
			},
		},
	}

	if g.codesEnabled {
		paths["/codes/next"] = map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Issue a new patient code",
				"operationId": "nextCode",
				"tags":        []string{"Codes"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{
						"description": "A code such as PAT-1A2B3C4D5E6F",
						"content":     jsonContent(map[string]string{"type": "string"}),
					},
				},
			},
		}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Patient Manager API",
			"version":     g.version,
			"description": "CRUD over patient records keyed by CI",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas(),
		},
	}
}

func (g *Generator) schemas() map[string]interface{} {
	codeDesc := "Not used"
	if g.codesEnabled {
		codeDesc = "Assigned by the code service; ignored on create"
	}
	return map[string]interface{}{
		"Patient": map[string]interface{}{
			"type":     "object",
			"required": []string{"name", "lastName", "ci", "bloodGroup"},
			"properties": map[string]interface{}{
				"name":       map[string]string{"type": "string"},
				"lastName":   map[string]string{"type": "string"},
				"ci":         map[string]string{"type": "string"},
				"bloodGroup": map[string]string{"type": "string"},
				"code":       map[string]interface{}{"type": "string", "readOnly": true, "description": codeDesc},
			},
		},
		"UpdateRequest": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":     map[string]string{"type": "string"},
				"lastName": map[string]string{"type": "string"},
			},
		},
		"Message": map[string]interface{}{
			"type":     "object",
			"required": []string{"message"},
			"properties": map[string]interface{}{
				"message": map[string]string{"type": "string"},
			},
		},
	}
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

func response(description, schema string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content":     jsonContent(ref(schema)),
	}
}

// Errors share the Message shape: {"message": "..."}.
func errorResponse(description string) map[string]interface{} {
	return response(description, "Message")
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Patient Manager API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis],
    })
  </script>
</body>
</html>`

// RegisterRoutes serves the document at /openapi.json and Swagger UI at
// /docs.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	e.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
