package domain

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Status 错误类别对应的 HTTP 状态码
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type AppError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "application error"
}

func (e *AppError) Unwrap() error { return e.Err }

func Validation(msg string) error   { return &AppError{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error     { return &AppError{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AppError{Kind: KindConflict, Msg: msg} }
func Unauthorized(msg string) error { return &AppError{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AppError{Kind: KindForbidden, Msg: msg} }
func Internal(msg string, err error) error {
	return &AppError{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 AppError 一律视为内部错误
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// PublicMessage 内部错误不向调用方暴露细节
func PublicMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal {
			if ae.Msg != "" {
				return ae.Msg
			}
			return "internal error"
		}
		return ae.Error()
	}
	return "internal error"
}

// 好友关系状态机的失败原因
var (
	ErrSelfRelation      = &AppError{Kind: KindValidation, Msg: "you cannot befriend yourself"}
	ErrInvalidTarget     = &AppError{Kind: KindValidation, Msg: "target user does not exist"}
	ErrAlreadyFriends    = &AppError{Kind: KindConflict, Msg: "you are already friends"}
	ErrDuplicateRequest  = &AppError{Kind: KindConflict, Msg: "you have sent a friend request already"}
	ErrReciprocalRequest = &AppError{Kind: KindConflict, Msg: "you have a pending friend request from this user"}
	ErrNoSuchRequest     = &AppError{Kind: KindNotFound, Msg: "friend request not found"}
	ErrNotFriends        = &AppError{Kind: KindConflict, Msg: "you are not friends"}
)
