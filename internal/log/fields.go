// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID = "correlation_id"
	FieldContractID    = "contract_id"
	FieldWarehouseID   = "warehouse_id"
	FieldManagerID     = "manager_id"
	FieldProductID     = "product_id"
	FieldRequestID     = "request_id"
	FieldTimeoutToken  = "timeout_token"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldTopic     = "topic"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldStatus   = "status"
)
