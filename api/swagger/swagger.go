package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "Academy API", "description": "Multi-tenant academy management: lectures, exams, notices, billing, quizzes and chat.", "version": "1.0.0"},
    "basePath": "/",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "paths": {
        "/health": {
            "get": {"tags": ["Platform"], "summary": "Liveness probe", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/ready": {
            "get": {"tags": ["Platform"], "summary": "Readiness probe pinging Postgres, Redis, Mongo and object storage", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/user/signup": {
            "post": {"tags": ["Auth"], "summary": "Create an account", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/user/login": {
            "post": {"tags": ["Auth"], "summary": "Issue access and refresh tokens", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/user/refresh": {
            "post": {"tags": ["Auth"], "summary": "Rotate the refresh token", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/user/logout": {
            "post": {"tags": ["Auth"], "summary": "Revoke a refresh token", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/user/me": {
            "get": {"tags": ["Users"], "summary": "Current profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "patch": {"tags": ["Users"], "summary": "Update profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/user/me/password": {
            "patch": {"tags": ["Auth"], "summary": "Change password", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/user/me/image": {
            "post": {"tags": ["Users"], "summary": "Upload profile image (jpeg or png, 10MB)", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/user/child": {
            "post": {"tags": ["Users"], "summary": "Link a student to the calling parent", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/user/academy/{academy_id}": {
            "get": {"tags": ["Users"], "summary": "List academy members", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/academy": {
            "post": {"tags": ["Academies"], "summary": "Create academy", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/academy/{academy_id}": {
            "get": {"tags": ["Academies"], "summary": "Get academy", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Academies"], "summary": "Update academy", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/academy/{academy_id}/status": {
            "patch": {"tags": ["Academies"], "summary": "Approve or reject an academy", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/academy/{academy_id}/invite-key": {
            "post": {"tags": ["Academies"], "summary": "Rotate the invite key", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/academy/{academy_id}/recount": {
            "post": {"tags": ["Academies"], "summary": "Recompute headcounts", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/registration": {
            "post": {"tags": ["Registrations"], "summary": "Request to join an academy", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/registration/{academy_id}": {
            "get": {"tags": ["Registrations"], "summary": "List join requests", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/registration/{registration_id}": {
            "patch": {"tags": ["Registrations"], "summary": "Approve or reject a join request", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "registration_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/exam-type/{academy_id}": {
            "post": {"tags": ["Exams"], "summary": "Create exam type", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]},
            "get": {"tags": ["Exams"], "summary": "List exam types", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/exam-type/{academy_id}/{type_id}": {
            "delete": {"tags": ["Exams"], "summary": "Delete exam type", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "type_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}": {
            "post": {"tags": ["Lectures"], "summary": "Create lecture", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]},
            "get": {"tags": ["Lectures"], "summary": "List lectures", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/lecture/{academy_id}/{lecture_id}": {
            "get": {"tags": ["Lectures"], "summary": "Get lecture", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]},
            "patch": {"tags": ["Lectures"], "summary": "Update lecture", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]},
            "delete": {"tags": ["Lectures"], "summary": "Delete lecture", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/participants": {
            "post": {"tags": ["Lectures"], "summary": "Enrol users", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/participants/{user_id}": {
            "delete": {"tags": ["Lectures"], "summary": "Remove a participant", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "user_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam": {
            "post": {"tags": ["Exams"], "summary": "Create exam", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]},
            "get": {"tags": ["Exams"], "summary": "List exams", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam/{exam_id}": {
            "get": {"tags": ["Exams"], "summary": "Get exam", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]},
            "delete": {"tags": ["Exams"], "summary": "Delete exam", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score": {
            "post": {"tags": ["Scores"], "summary": "Upload a score batch", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]},
            "get": {"tags": ["Scores"], "summary": "Score sheet", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/{user_id}": {
            "patch": {"tags": ["Scores"], "summary": "Modify one score", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}, {"name": "user_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/recalculate": {
            "post": {"tags": ["Scores"], "summary": "Recompute exam statistics", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/export": {
            "get": {"tags": ["Scores"], "summary": "Download the score sheet as csv, pdf or xlsx", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/notice/{academy_id}/{lecture_id}": {
            "post": {"tags": ["Notices"], "summary": "Post a notice with attachments", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/notice/list": {
            "get": {"tags": ["Notices"], "summary": "List notices", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/notice/{notice_id}": {
            "get": {"tags": ["Notices"], "summary": "Read a notice", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "notice_id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Notices"], "summary": "Edit a notice", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "notice_id", "in": "path", "required": true, "type": "string"}]},
            "delete": {"tags": ["Notices"], "summary": "Delete a notice", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "notice_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/bill/{academy_id}/class": {
            "post": {"tags": ["Billing"], "summary": "Create tuition class", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]},
            "get": {"tags": ["Billing"], "summary": "List tuition classes", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/bill/{academy_id}/class/{class_id}": {
            "delete": {"tags": ["Billing"], "summary": "Delete tuition class", "responses": {"204": {"description": "No Content"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}, {"name": "class_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/bill/{academy_id}": {
            "post": {"tags": ["Billing"], "summary": "Issue a bill", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]},
            "get": {"tags": ["Billing"], "summary": "List bills", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/bill/user/me": {
            "get": {"tags": ["Billing"], "summary": "Bills addressed to the caller", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/bill/{academy_id}/pay": {
            "patch": {"tags": ["Billing"], "summary": "Mark a bill paid", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "academy_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/quiz/{lecture_id}": {
            "post": {"tags": ["Quizzes"], "summary": "Generate a quiz", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "lecture_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/quiz/{lecture_id}/{exam_id}": {
            "get": {"tags": ["Quizzes"], "summary": "Quiz questions", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/quiz/{lecture_id}/{exam_id}/grade": {
            "post": {"tags": ["Quizzes"], "summary": "Submit answers", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/quiz/{lecture_id}/{exam_id}/results": {
            "get": {"tags": ["Quizzes"], "summary": "Graded submissions", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "lecture_id", "in": "path", "required": true, "type": "integer"}, {"name": "exam_id", "in": "path", "required": true, "type": "integer"}]}
        },
        "/otp": {
            "post": {"tags": ["OTP"], "summary": "Issue a verification code", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/otp/verify": {
            "post": {"tags": ["OTP"], "summary": "Check the inbox for the texted code", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/chat/ws": {
            "get": {"tags": ["Chat"], "summary": "Open the chat websocket", "responses": {"101": {"description": "Switching Protocols"}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/chat/rooms": {
            "get": {"tags": ["Chat"], "summary": "Rooms of the caller", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/chat/rooms/{room_id}/messages": {
            "get": {"tags": ["Chat"], "summary": "Room history", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "room_id", "in": "path", "required": true, "type": "string"}]}
        },
        "/platform/metrics": {
            "get": {"tags": ["Platform"], "summary": "Process counters", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "default": {"description": "Error envelope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        }
    },
    "definitions": {
        "Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}},
        "ResponseEnvelope": {"type": "object", "properties": {"message": {"type": "string"}, "data": {"type": "object"}, "errorCode": {"type": "string"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}}
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
