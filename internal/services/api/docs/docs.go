// Package docs holds the OpenAPI document served by swaggerkit
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/check-ambiguity": {
            "post": {
                "tags": ["tracker"],
                "summary": "Check whether a tracker name is ambiguous",
                "security": [{"bearerAuth": []}],
                "requestBody": {
                    "required": true,
                    "content": {
                        "application/json": {
                            "schema": {"$ref": "#/components/schemas/CheckRequest"}
                        }
                    }
                },
                "responses": {
                    "200": {
                        "description": "Ambiguity verdict",
                        "content": {
                            "application/json": {
                                "schema": {"$ref": "#/components/schemas/AmbiguityResult"}
                            }
                        }
                    },
                    "401": {"$ref": "#/components/responses/Unauthorized"},
                    "429": {"$ref": "#/components/responses/TooManyRequests"}
                }
            }
        },
        "/generate-tracker-config": {
            "post": {
                "tags": ["tracker"],
                "summary": "Generate a tracker configuration or ask for clarification",
                "security": [{"bearerAuth": []}],
                "requestBody": {
                    "required": true,
                    "content": {
                        "application/json": {
                            "schema": {"$ref": "#/components/schemas/GenerateRequest"}
                        }
                    }
                },
                "responses": {
                    "200": {
                        "description": "A config or a clarification request",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "oneOf": [
                                        {"$ref": "#/components/schemas/ConfigResponse"},
                                        {"$ref": "#/components/schemas/ClarifyResponse"}
                                    ]
                                }
                            }
                        }
                    },
                    "401": {"$ref": "#/components/responses/Unauthorized"},
                    "429": {"$ref": "#/components/responses/TooManyRequests"}
                }
            }
        }
    },
    "components": {
        "securitySchemes": {
            "bearerAuth": {"type": "http", "scheme": "bearer"}
        },
        "responses": {
            "Unauthorized": {
                "description": "Missing or rejected bearer token",
                "content": {
                    "application/json": {
                        "schema": {"$ref": "#/components/schemas/ErrorResponse"}
                    }
                }
            },
            "TooManyRequests": {
                "description": "Rate limit exceeded",
                "content": {
                    "application/json": {
                        "schema": {"$ref": "#/components/schemas/RateLimitResponse"}
                    }
                }
            }
        },
        "schemas": {
            "ErrorResponse": {
                "type": "object",
                "properties": {"error": {"type": "string"}},
                "required": ["error"]
            },
            "RateLimitResponse": {
                "type": "object",
                "properties": {
                    "error": {"type": "string"},
                    "resetAt": {"type": "string", "format": "date-time"}
                }
            },
            "CheckRequest": {
                "type": "object",
                "required": ["trackerName"],
                "properties": {
                    "trackerName": {"type": "string", "maxLength": 500},
                    "allDefinitions": {"type": "array", "items": {"type": "string"}},
                    "wikiSummary": {"type": "string"},
                    "wikiCategories": {"type": "array", "items": {"type": "string"}},
                    "relatedTerms": {"type": "array", "items": {"type": "string"}}
                }
            },
            "Interpretation": {
                "type": "object",
                "properties": {
                    "value": {"type": "string"},
                    "label": {"type": "string"},
                    "description": {"type": "string"}
                }
            },
            "AmbiguityResult": {
                "type": "object",
                "properties": {
                    "isAmbiguous": {"type": "boolean"},
                    "reason": {"type": "string"},
                    "interpretations": {"type": "array", "items": {"$ref": "#/components/schemas/Interpretation"}},
                    "suggestedCorrection": {"type": "string"}
                }
            },
            "HistoryEntry": {
                "type": "object",
                "properties": {
                    "question": {"type": "string"},
                    "answer": {"type": "string"}
                }
            },
            "GenerateRequest": {
                "type": "object",
                "required": ["trackerName"],
                "properties": {
                    "trackerName": {"type": "string", "maxLength": 500},
                    "definition": {"type": "string"},
                    "allDefinitions": {"type": "array", "items": {"type": "string"}},
                    "wikiSummary": {"type": "string"},
                    "wikiCategories": {"type": "array", "items": {"type": "string"}},
                    "relatedTerms": {"type": "array", "items": {"type": "string"}},
                    "userDescription": {"type": "string"},
                    "selectedInterpretation": {
                        "oneOf": [
                            {"type": "string"},
                            {"$ref": "#/components/schemas/Interpretation"}
                        ]
                    },
                    "conversationHistory": {"type": "array", "items": {"$ref": "#/components/schemas/HistoryEntry"}}
                }
            },
            "Location": {
                "type": "object",
                "properties": {
                    "value": {"type": "string"},
                    "label": {"type": "string"}
                }
            },
            "TrackerConfig": {
                "type": "object",
                "properties": {
                    "name": {"type": "string"},
                    "description": {"type": "string"},
                    "icon": {"type": "string"},
                    "category": {"type": "string"},
                    "severityLabel": {"type": "string"},
                    "severityLowLabel": {"type": "string"},
                    "severityHighLabel": {"type": "string"},
                    "durationLabel": {"type": "string"},
                    "locationLabel": {"type": "string"},
                    "locationPlaceholder": {"type": "string"},
                    "locations": {"type": "array", "items": {"$ref": "#/components/schemas/Location"}},
                    "triggersLabel": {"type": "string"},
                    "triggersPlaceholder": {"type": "string"},
                    "triggers": {"type": "array", "items": {"type": "string"}},
                    "notesLabel": {"type": "string"},
                    "notesPlaceholder": {"type": "string"},
                    "suggestedHashtags": {"type": "array", "items": {"type": "string"}}
                }
            },
            "ConfigResponse": {
                "type": "object",
                "properties": {
                    "config": {"$ref": "#/components/schemas/TrackerConfig"}
                }
            },
            "ClarifyResponse": {
                "type": "object",
                "properties": {
                    "needs_clarification": {"type": "boolean"},
                    "confidence": {"type": "number"},
                    "final_question": {"type": "boolean"},
                    "questions": {"type": "array", "items": {"type": "string"}},
                    "reason": {"type": "string"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tracker Generation API",
	Description:      "Resolves ambiguous tracker names and generates tracker configurations.",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
