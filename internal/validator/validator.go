// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("manual_snapshot_source", validateManualSnapshotSource)
		_ = v.RegisterValidation("risk_tier", validateRiskTier)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "buy", "withdrawal":
		return true
	}
	return false
}

// Manual snapshot requests may only claim manual or admin_enforce provenance;
// the system sources are reserved for the cron job and approval flow.
func validateManualSnapshotSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "manual", "admin_enforce":
		return true
	}
	return false
}

func validateRiskTier(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "medium", "high":
		return true
	}
	return false
}
