package errors

import "net/http"

// ============================================================================
// Common errors (service 00)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Bad request",
	})

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:    http.StatusBadRequest,
		Message: "Invalid parameter",
	})

	// ErrNotFound indicates the resource is not found.
	ErrNotFound = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryResource, 0),
		HTTP:    http.StatusNotFound,
		Message: "Resource not found",
	})

	// ErrAlreadyExists indicates the resource already exists.
	ErrAlreadyExists = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryConflict, 0),
		HTTP:    http.StatusConflict,
		Message: "Resource already exists",
	})

	// ErrInternal indicates an internal server error.
	ErrInternal = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Internal server error",
	})

	// ErrDatabase indicates a database error.
	ErrDatabase = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryDatabase, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Database error",
	})
)

// ============================================================================
// Engine errors (service 20)
// ============================================================================

var (
	// ErrFilterInvalid indicates a malformed filter condition. Surfaced at
	// binding validation time, never at evaluation time.
	ErrFilterInvalid = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryRequest, 0),
		HTTP:    http.StatusUnprocessableEntity,
		Message: "Invalid filter",
	})

	// ErrDuplicateTransformer indicates a transformer id is already registered.
	ErrDuplicateTransformer = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryConflict, 0),
		HTTP:    http.StatusConflict,
		Message: "Transformer already registered",
	})

	// ErrTransformerNotFound indicates an unknown transformer id.
	ErrTransformerNotFound = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryResource, 0),
		HTTP:    http.StatusNotFound,
		Message: "Transformer not found",
	})

	// ErrDocumentGone indicates a commit arrived after its document was
	// deleted. Internal: the result is discarded, never retried.
	ErrDocumentGone = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryResource, 1),
		HTTP:    http.StatusGone,
		Message: "Document deleted",
	})

	// ErrTransformInvocation indicates the transformer body failed.
	ErrTransformInvocation = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Transformer invocation failed",
	})

	// ErrMapping indicates transformer output does not fit the index schema.
	ErrMapping = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryInternal, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Output does not match index schema",
	})

	// ErrStaleCommit indicates a commit lost the version fence. Internal:
	// never surfaced to API callers, it triggers an automatic re-run.
	ErrStaleCommit = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryConflict, 1),
		HTTP:    http.StatusConflict,
		Message: "Stale commit rejected",
	})

	// ErrBindingOff indicates a commit was suppressed because the binding
	// was switched off while the job was in flight.
	ErrBindingOff = Register(&Errno{
		Code:    MakeCode(ServiceEngine, CategoryConflict, 2),
		HTTP:    http.StatusConflict,
		Message: "Binding is off",
	})
)
