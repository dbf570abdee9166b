package service

import "errors"

// Kind classifies a service failure. The HTTP layer maps each kind to one status code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Machine-readable error codes returned to clients.
const (
	CodeFileRequired        = "FILE_REQUIRED"
	CodeFileNotSelected     = "FILE_NOT_SELECTED"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeUnreadableFile      = "UNREADABLE_FILE"
	CodeEmptyDataset        = "EMPTY_DATASET"
	CodeUploadFailed        = "UPLOAD_FAILED"
	CodeFileIDRequired      = "FILE_ID_REQUIRED"
	CodeInvalidModels       = "INVALID_MODELS"
	CodeFileNotFound        = "FILE_NOT_FOUND"
	CodeAnalysisFailed      = "ANALYSIS_FAILED"
	CodeResultNotFound      = "RESULT_NOT_FOUND"
	CodeRetrievalFailed     = "RETRIEVAL_FAILED"
	CodeExportFailed        = "EXPORT_FAILED"
	CodeHistoryFailed       = "HISTORY_FAILED"
)

// Error is a tagged service failure with a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func invalidInput(code, message string, err error) *Error {
	return newError(KindInvalidInput, code, message, err)
}

func notFound(code, message string) *Error {
	return newError(KindNotFound, code, message, nil)
}

func internal(code, message string, err error) *Error {
	return newError(KindInternal, code, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
