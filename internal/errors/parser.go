package errors

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a client-safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies storage and network failures into a code and a message
// that is safe to show. context names the operation, e.g. "create product".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error())
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return parseForeignKeyError(err.Error())
	}
	if isTimeout(err) {
		return ErrorInfo{Code: InternalExternalAPI, Message: "The request timed out. Please try again"}
	}

	errLower := strings.ToLower(err.Error())

	// postgres 23505 / sqlite "UNIQUE constraint failed" when TranslateError is off
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}
	// postgres 23503 / sqlite "FOREIGN KEY constraint failed"
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(errLower)
	}
	// postgres 23502 / sqlite "NOT NULL constraint failed"
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}
	// postgres 23514 / sqlite "CHECK constraint failed"
	if strings.Contains(errLower, "check constraint") {
		return parseCheckConstraintError(errLower)
	}

	if strings.Contains(errLower, "connection refused") || strings.Contains(errLower, "no such host") {
		return ErrorInfo{Code: InternalDatabaseError, Message: "The service is temporarily unavailable"}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "newsletter"):
		return ErrorInfo{Code: NewsletterSubscribed, Message: "This email is already subscribed"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: CustomerEmailExists, Message: "This email is already registered"}
	case strings.Contains(errLower, "categor"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This category already exists"}
	case strings.Contains(errLower, "owner_product") || strings.Contains(errLower, "cart_items"):
		return ErrorInfo{Code: ResourceConflict, Message: "The cart changed concurrently. Please retry"}
	}

	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "The record is still referenced and cannot be deleted"}
	}
	if strings.Contains(errLower, "customer") {
		return ErrorInfo{Code: CustomerNotFound, Message: "Customer not found"}
	}
	if strings.Contains(errLower, "categor") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Category not found"}
	}

	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
}

func parseCheckConstraintError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "rating"):
		return ErrorInfo{Code: ReviewInvalidRating, Message: "Rating must be between 1 and 5"}
	case strings.Contains(errLower, "stock"):
		return ErrorInfo{Code: ProductInsufficientStock, Message: "Not enough stock"}
	case strings.Contains(errLower, "quantity"):
		return ErrorInfo{Code: ValidationInvalidRange, Message: "Quantity must be positive"}
	}
	return ErrorInfo{Code: ValidationInvalidInput, Message: "Some input values are invalid"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "cart"):
		return "Cart item not found"
	case strings.Contains(contextLower, "order"):
		return "Order not found"
	case strings.Contains(contextLower, "customer"):
		return "Customer not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"), strings.Contains(contextLower, "add"):
		return "Failed to save. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Failed to update. Please try again later"
	case strings.Contains(contextLower, "delete"), strings.Contains(contextLower, "remove"):
		return "Failed to delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond writes the classified error with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
