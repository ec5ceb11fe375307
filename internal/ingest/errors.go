package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds classify pipeline failures for HTTP mapping and logging.
const (
	// KindClient covers caller mistakes: missing file, oversized file,
	// unsupported format. The message is shown to the user verbatim.
	KindClient = "client"
	// KindProvider covers OCR and structuring failures. The user sees a
	// generic localized message; the raw cause is only logged.
	KindProvider = "provider"
	// KindPersistence covers blob-store and database failures.
	KindPersistence = "persistence"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    string
	Stage   string // validate, upload, extract, structure, resolve, persist
	Message string // user-facing, Japanese
	Status  int    // HTTP status
	Err     error  // raw cause, logged server-side only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for the failure.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// User-facing messages, matching the application's Japanese UI.
const (
	msgNoFile          = "ファイルがアップロードされていません"
	msgFileTooLarge    = "ファイルサイズが大きすぎます（25MB以下にしてください）"
	msgUnsupportedType = "サポートされていないファイル形式です（JPEG、PNG、GIF、PDFのみ対応しています）"
	msgUploadFailed    = "ファイルの保存に失敗しました"
	msgOCRFailed       = "テキストを抽出できませんでした"
	msgStructureFailed = "テキストの構造化に失敗しました"
	msgNoPropertyName  = "物件名を特定できませんでした"
	msgPersistFailed   = "データベースへの保存に失敗しました"
)

func clientError(stage, message string, status int, cause error) *Error {
	return &Error{Kind: KindClient, Stage: stage, Message: message, Status: status, Err: cause}
}

func providerError(stage, message string, cause error) *Error {
	return &Error{Kind: KindProvider, Stage: stage, Message: message, Status: http.StatusInternalServerError, Err: cause}
}

func persistenceError(stage, message string, cause error) *Error {
	return &Error{Kind: KindPersistence, Stage: stage, Message: message, Status: http.StatusInternalServerError, Err: cause}
}

// AsError extracts a classified pipeline error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
