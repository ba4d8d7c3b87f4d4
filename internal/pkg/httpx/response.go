// Package httpx 统一 HTTP 响应格式: {success, data | error, message}
package httpx

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// Envelope 是所有接口的响应体
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const internalMessage = "something went wrong, please try again later"

// WriteJSON 输出成功响应
func WriteJSON(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, Envelope{Success: true, Data: data, Message: message})
}

// OK 是 200 成功响应的快捷方式
func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data, "")
}

// StatusFor 根据错误类别返回 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError 把业务错误转换成响应；未知错误完整记录日志，只向客户端返回通用提示
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		write(w, status, Envelope{Success: false, Error: "internal_error", Message: internalMessage})
		return
	}
	write(w, status, Envelope{Success: false, Error: apperr.CodeOf(err), Message: err.Error()})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrBadBody 请求体无法解析
var ErrBadBody = apperr.Validation("invalid_body", "request body is not valid JSON")

// Decode 解析 JSON 请求体，限制大小并拒绝未知字段
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrBadBody
	}
	return nil
}

// Page 分页参数
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// MaxPage 页码上限，超过的按最后一页处理，OFFSET 不会溢出
const MaxPage = 10000

// Offset 返回 SQL OFFSET
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * p.Limit
}

// ParsePage 从 query 中读取 page / limit，非法值回退到默认值，limit 不超过 max，page 不超过 MaxPage
func ParsePage(r *http.Request, defaultLimit, maxLimit int) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Paged 是列表接口的 data 结构
type Paged[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
