package validator

import (
	"fmt"
	"strings"
)

// Коды ошибок стабильны, клиенты ветвятся по ним
const (
	CodeInvalidUserID         = 100
	CodeInvalidName           = 101
	CodeInvalidProvider       = 102
	CodeInvalidExpirationDate = 103
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewError(code int, message string) Error {
	return Error{Code: code, Message: message}
}

func (e Error) String() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// ValidationResult упорядоченный список ошибок; пустой список значит валидный запрос
type ValidationResult struct {
	errors []Error
}

func (r *ValidationResult) Add(err Error) {
	r.errors = append(r.errors, err)
}

// Errors возвращает копию, чтобы результат оставался append-only
func (r ValidationResult) Errors() []Error {
	out := make([]Error, len(r.errors))
	copy(out, r.errors)
	return out
}

func (r ValidationResult) HasErrors() bool {
	return len(r.errors) > 0
}

func (r ValidationResult) Codes() []int {
	codes := make([]int, 0, len(r.errors))
	for _, e := range r.errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func (r ValidationResult) String() string {
	parts := make([]string, 0, len(r.errors))
	for _, e := range r.errors {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}
