package xerr

import (
	"errors"
	"fmt"
)

// 常用错误码定义
const (
	OK                 = 200
	RequestParamsError = 400
	RecordNotFound     = 404
	Conflict           = 409
	ServerCommonError  = 500
	DbError            = 501
)

// 业务错误码
const (
	ShiftClosed       = 40001
	InvalidPaperCount = 40002
	TableOccupied     = 40003
	ShiftAlreadyOpen  = 40004
	OrderClosed       = 40005
)

type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	err  error
}

func (e *CodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("ErrCode:%d, Msg:%s, Cause:%v", e.Code, e.Msg, e.err)
	}
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

func (e *CodeError) Unwrap() error { return e.err }

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func NewErrCode(code int) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

// Wrap 保留底层错误，msg 是对外文案
func Wrap(err error, code int, msg string) error {
	if err == nil {
		return nil
	}
	return &CodeError{Code: code, Msg: msg, err: err}
}

// CodeOf 取错误码，非 CodeError 一律 ServerCommonError
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ServerCommonError
}

// MsgOf 取对外文案，非 CodeError 不透出内部信息
func MsgOf(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return MapErrMsg(ServerCommonError)
}

func MapErrMsg(code int) string {
	switch code {
	case ServerCommonError:
		return "internal error"
	case RequestParamsError:
		return "invalid request parameters"
	case DbError:
		return "database busy"
	case RecordNotFound:
		return "record not found"
	case Conflict:
		return "conflict"
	case ShiftClosed:
		return "shift already closed"
	case InvalidPaperCount:
		return "end paper count must be greater than start paper count"
	case TableOccupied:
		return "table is occupied"
	case ShiftAlreadyOpen:
		return "staff already has an open shift"
	case OrderClosed:
		return "order is already closed"
	default:
		return "unknown error"
	}
}
