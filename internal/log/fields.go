package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwner       = "owner"
	FieldUsername    = "username"
	FieldExpenseID   = "expense_id"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldLabelID     = "label_id"
	FieldLabelKind   = "label_kind"
	FieldLabelName   = "label_name"
	FieldCount       = "count"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldSearch      = "search"
	FieldDuration    = "duration_ms"
	FieldEventKind   = "event_kind"
	FieldEventID     = "event_id"
	FieldErrorType   = "error_type"
	FieldDatabase    = "database"
	FieldRow         = "row"
	FieldRunID       = "run_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentUsers     = "users"
	ComponentStorage   = "storage"
	ComponentDashboard = "dashboard"
	ComponentCSV       = "csv"
	ComponentAMQP      = "amqp"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpFind     = "find"
	OpRename   = "rename"
	OpReport   = "report"
	OpImport   = "import"
	OpExport   = "export"
	OpPublish  = "publish"
	OpRegister = "register"
	OpLogin    = "login"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error message; a nil error is ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithOwner(owner int64) LogFields {
	f[FieldOwner] = owner
	return f
}

// WithExpense adds expense-related fields. The amount is logged in its
// canonical decimal form.
func (f LogFields) WithExpense(id int64, amount decimal.Decimal, date string) LogFields {
	if id != 0 {
		f[FieldExpenseID] = id
	}
	f[FieldAmount] = amount.String()
	f[FieldDate] = date
	return f
}

func (f LogFields) WithLabel(kind string, id int64, name string) LogFields {
	f[FieldLabelKind] = kind
	if id != 0 {
		f[FieldLabelID] = id
	}
	if name != "" {
		f[FieldLabelName] = name
	}
	return f
}

// WithDateRange adds the bounds of a date filter; empty bounds are skipped.
func (f LogFields) WithDateRange(start, end string) LogFields {
	if start != "" {
		f[FieldStartDate] = start
	}
	if end != "" {
		f[FieldEndDate] = end
	}
	return f
}

func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
