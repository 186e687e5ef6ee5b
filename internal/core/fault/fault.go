package fault

import "errors"

// 失敗の種別を表す基底エラーです。ドメイン固有のエラーはいずれかを Unwrap で返します。
var (
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBackingStore     = errors.New("backing store error")
)

// Kind は失敗種別の列挙です。
type Kind string

const (
	KindNone             Kind = ""
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindBackingStore     Kind = "backing_store"
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New は kind に分類されるドメインエラーを生成します。
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }

func (e *storeError) Unwrap() []error { return []error{ErrBackingStore, e.err} }

// BackingStore はデータストアや ID プロバイダ由来のエラーをメッセージを変えずに包みます。
// 既に分類済みのエラーはそのまま返します。
func BackingStore(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindBackingStore || errors.Is(err, ErrBackingStore) {
		return err
	}
	return &storeError{err: err}
}

// KindOf は err の失敗種別を判定します。未分類のエラーは BackingStore として扱います。
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	default:
		return KindBackingStore
	}
}
