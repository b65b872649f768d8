package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CertTrack API",
        "description": "Certificate hierarchy and compliance rules engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "License catalog and prerequisite graph"},
        {"name": "Ledger", "description": "Employee certificate records"},
        {"name": "Eligibility", "description": "Enrollment and renewal evaluation"},
        {"name": "Exemptions", "description": "Mass exemption runner and audit"},
        {"name": "Templates", "description": "Reusable exemption criteria"},
        {"name": "Rules", "description": "Auto-exemption rules"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/licenses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List licenses",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create license",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLicenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/licenses/graph": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get the prerequisite graph",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/licenses/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get license",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Catalog"],
                "summary": "Update license",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLicenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete license",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Referenced by certificate records"}
                }
            }
        },
        "/licenses/{id}/prerequisites": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List prerequisites",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Add prerequisite edge",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddPrerequisiteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Would create a cycle"},
                    "409": {"description": "Edge already exists"}
                }
            }
        },
        "/eligibility/enrollment": {
            "post": {
                "tags": ["Eligibility"],
                "summary": "Evaluate course enrollment eligibility",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eligibility/renewal": {
            "post": {
                "tags": ["Eligibility"],
                "summary": "Evaluate certificate renewal eligibility",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateRenewalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exemptions/preview": {
            "post": {
                "tags": ["Exemptions"],
                "summary": "Preview matching employees",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExemptionCriteria"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty or malformed criteria"}
                }
            }
        },
        "/exemptions/execute": {
            "post": {
                "tags": ["Exemptions"],
                "summary": "Execute a mass exemption",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExecuteExemptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Mass exemptions disabled"}
                }
            }
        },
        "/exemptions/operations": {
            "get": {
                "tags": ["Exemptions"],
                "summary": "List operations",
                "parameters": [
                    {"name": "licenseId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exemptions/operations/{id}": {
            "get": {
                "tags": ["Exemptions"],
                "summary": "Get operation with result rows",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "License": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "integer"},
                "level_description": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateLicenseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "integer"},
                "level_description": {"type": "string"}
            },
            "required": ["name", "category"]
        },
        "UpdateLicenseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "integer"},
                "level_description": {"type": "string"}
            },
            "required": ["name", "category"]
        },
        "AddPrerequisiteRequest": {
            "type": "object",
            "properties": {
                "prerequisite_id": {"type": "string"}
            },
            "required": ["prerequisite_id"]
        },
        "EvaluateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "license_id": {"type": "string"},
                "target_level": {"type": "integer"}
            },
            "required": ["employee_id", "license_id", "target_level"]
        },
        "EvaluateRenewalRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "license_id": {"type": "string"}
            },
            "required": ["employee_id", "license_id"]
        },
        "ExemptionCriteria": {
            "type": "object",
            "properties": {
                "license_id": {"type": "string"},
                "departments": {"type": "array", "items": {"type": "string"}},
                "contract_types": {"type": "array", "items": {"type": "string"}},
                "location_ids": {"type": "array", "items": {"type": "string"}},
                "hired_from": {"type": "string"},
                "hired_to": {"type": "string"},
                "min_service_years": {"type": "number"},
                "max_service_years": {"type": "number"},
                "exclude_existing_exemptions": {"type": "boolean"}
            }
        },
        "ExecuteExemptionRequest": {
            "type": "object",
            "properties": {
                "criteria": {"$ref": "#/definitions/ExemptionCriteria"},
                "type": {"type": "string", "enum": ["PERMANENT", "TEMPORARY", "CONDITIONAL"]},
                "reason": {"type": "string"},
                "justification": {"type": "string"},
                "effective_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "save_template": {"type": "boolean"},
                "template_name": {"type": "string"},
                "template_id": {"type": "string"}
            },
            "required": ["type", "reason"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
