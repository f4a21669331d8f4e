package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OpenLearn API",
        "description": "Bulk material assignment service for the OpenLearn platform",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Materials", "description": "Learning material catalog"},
        {"name": "BulkAssignments", "description": "Bulk material assignment and audit trail"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/materials": {
            "get": {
                "tags": ["Materials"],
                "summary": "List materials",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/materials/{id}": {
            "get": {
                "tags": ["Materials"],
                "summary": "Get material detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bulk-assignments/preflight": {
            "post": {
                "tags": ["BulkAssignments"],
                "summary": "Dry-run a bulk assignment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreflightRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PreflightResult"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/bulk-assignments/students": {
            "post": {
                "tags": ["BulkAssignments"],
                "summary": "Assign one material to many students",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignStudentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkOperationResult"}},
                    "422": {"description": "Preflight failed or limit exceeded"}
                }
            }
        },
        "/bulk-assignments/materials": {
            "post": {
                "tags": ["BulkAssignments"],
                "summary": "Assign many materials to one student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignMaterialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkOperationResult"}},
                    "422": {"description": "Preflight failed or limit exceeded"}
                }
            }
        },
        "/bulk-assignments/classes": {
            "post": {
                "tags": ["BulkAssignments"],
                "summary": "Assign materials to every active student of a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkOperationResult"}},
                    "422": {"description": "Preflight failed or limit exceeded"}
                }
            }
        },
        "/bulk-assignments/remove": {
            "post": {
                "tags": ["BulkAssignments"],
                "summary": "Remove assignments by material and/or student axis",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkRemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkOperationResult"}},
                    "422": {"description": "Preflight failed or limit exceeded"}
                }
            }
        },
        "/bulk-assignments/audits": {
            "get": {
                "tags": ["BulkAssignments"],
                "summary": "List bulk operation audit records",
                "parameters": [
                    {"name": "performedBy", "in": "query", "type": "string"},
                    {"name": "operation", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bulk-assignments/audits/{id}": {
            "get": {
                "tags": ["BulkAssignments"],
                "summary": "Get one audit record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bulk-assignments/audits/export": {
            "get": {
                "tags": ["BulkAssignments"],
                "summary": "Export the audit trail as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "performedBy", "in": "query", "type": "string"},
                    {"name": "operation", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "PreflightRequest": {
            "type": "object",
            "required": ["operation"],
            "properties": {
                "operation": {"type": "string", "enum": ["ASSIGN_TO_STUDENTS", "ASSIGN_MATERIALS", "ASSIGN_TO_CLASS", "REMOVE"]},
                "material_id": {"type": "string"},
                "material_ids": {"type": "array", "items": {"type": "string"}},
                "student_id": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "class_id": {"type": "string"}
            }
        },
        "PreflightResult": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "total_items": {"type": "integer"},
                "affected_students": {"type": "array", "items": {"type": "string"}},
                "affected_materials": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BulkAssignStudentsRequest": {
            "type": "object",
            "required": ["material_id", "student_ids"],
            "properties": {
                "material_id": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "skip_existing": {"type": "boolean"},
                "notify": {"type": "boolean"}
            }
        },
        "BulkAssignMaterialsRequest": {
            "type": "object",
            "required": ["material_ids", "student_id"],
            "properties": {
                "material_ids": {"type": "array", "items": {"type": "string"}},
                "student_id": {"type": "string"},
                "skip_existing": {"type": "boolean"},
                "notify": {"type": "boolean"}
            }
        },
        "BulkAssignClassRequest": {
            "type": "object",
            "required": ["material_ids", "class_id"],
            "properties": {
                "material_ids": {"type": "array", "items": {"type": "string"}},
                "class_id": {"type": "string"},
                "skip_existing": {"type": "boolean"},
                "notify": {"type": "boolean"}
            }
        },
        "BulkRemoveRequest": {
            "type": "object",
            "properties": {
                "material_ids": {"type": "array", "items": {"type": "string"}},
                "student_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BulkOperationResult": {
            "type": "object",
            "properties": {
                "audit_id": {"type": "string"},
                "status": {"type": "string", "enum": ["COMPLETED", "PARTIAL_FAILURE", "FAILED"]},
                "total_items": {"type": "integer"},
                "created": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"},
                "failed_items": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "material_id": {"type": "string"},
                            "student_id": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                }
            }
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
