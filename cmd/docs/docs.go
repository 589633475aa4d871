// Package docs описание API для swagger UI в формате swag.
// Обновляется вместе с godoc аннотациями обработчиков.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Проверяет доступность хранилища.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка состояния",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions": {
            "post": {
                "description": "Создает подписку пользователя. Если подписка у пользователя уже есть, возвращается существующая.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Создать подписку",
                "parameters": [
                    {
                        "description": "Данные подписки",
                        "name": "subscription",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.CreateSubscriptionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Subscription"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions/view/list": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Получить список всех подписок",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Subscription"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions/user/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Подписки пользователя",
                "parameters": [
                    {"type": "integer", "description": "ID пользователя", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Subscription"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Вернуть подписку по ID",
                "parameters": [
                    {"type": "integer", "description": "ID подписки", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Subscription"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["subscriptions"],
                "summary": "Удаляет подписку по ID",
                "parameters": [
                    {"type": "integer", "description": "ID подписки", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions/{id}/cancel": {
            "post": {
                "description": "Только активная подписка может быть отменена.",
                "tags": ["subscriptions"],
                "summary": "Отменить подписку",
                "parameters": [
                    {"type": "integer", "description": "ID подписки", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/subscriptions/{id}/expire": {
            "post": {
                "description": "Только активная подписка может быть завершена.",
                "tags": ["subscriptions"],
                "summary": "Завершить подписку",
                "parameters": [
                    {"type": "integer", "description": "ID подписки", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/validator.Error"}}
            }
        },
        "models.CreateSubscriptionRequest": {
            "type": "object",
            "properties": {
                "expiration_date": {"type": "string"},
                "name": {"type": "string"},
                "provider": {"type": "string"},
                "user_id": {"type": "integer"}
            }
        },
        "models.Subscription": {
            "type": "object",
            "properties": {
                "expiration_date": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "provider": {"type": "string", "enum": ["GOOGLE", "APPLE"]},
                "status": {"type": "string", "enum": ["ACTIVE", "CANCELED", "EXPIRED"]},
                "user_id": {"type": "integer"}
            }
        },
        "validator.Error": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "Subscription Service API",
	Description:      "API для управления подписками.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
