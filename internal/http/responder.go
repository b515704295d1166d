package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/example/timetable-share/internal/application"
)

const maxRequestBody = 1 << 20

var (
	errBadRequestBody      = errors.New("請求格式不正確。")
	errInvalidDate         = errors.New("日期格式不正確，請使用 YYYY-MM-DD。")
	errMissingSessionToken = errors.New("請提供登入憑證。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "電子郵件或密碼不正確。",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "登入已過期，請重新登入。",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "登入已失效，請重新登入。",
		})
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_UNAUTHENTICATED",
			Message:   localizedStatusMessage(http.StatusUnauthorized),
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(http.StatusForbidden),
		})
	case errors.Is(err, application.ErrUserNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "USER_NOT_FOUND",
			Message:   "找不到該用戶",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ACCOUNT_EXISTS",
			Message:   "此電子郵件已被註冊。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: localizedStatusMessage(http.StatusUnprocessableEntity),
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "請求內容不正確。"
	case http.StatusUnauthorized:
		return "請先登入。"
	case http.StatusForbidden:
		return "您沒有權限執行此操作。"
	case http.StatusNotFound:
		return "找不到指定的資源。"
	case http.StatusConflict:
		return "請求與目前的資料狀態衝突。"
	case http.StatusUnprocessableEntity:
		return "輸入內容有誤。"
	case http.StatusTooManyRequests:
		return "請求過於頻繁，請稍後再試。"
	case http.StatusServiceUnavailable:
		return "服務暫時無法使用。"
	default:
		return "伺服器發生錯誤。"
	}
}

var fieldLabels = map[string]string{
	"email":    "電子郵件",
	"password": "密碼",
	"name":     "名稱",
	"uid":      "用戶 ID",
	"cell":     "時段",
	"grid":     "課表",
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(field, msg)
	}
	return translated
}

func translateValidationMessage(field, message string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}

	switch message {
	case "cannot add yourself":
		return "不能將自己加為好友。"
	case "cell is out of range":
		return "時段超出範圍。"
	case "grid must be 10 rows of 5 days":
		return "課表必須是 10 節 × 5 天的格子。"
	}

	rest, ok := strings.CutPrefix(message, field+" ")
	if !ok {
		return message
	}
	switch {
	case rest == "is required":
		return "請輸入" + label + "。"
	case rest == "is invalid":
		return label + "格式不正確。"
	case strings.HasPrefix(rest, "must be at least "):
		n := strings.TrimSuffix(strings.TrimPrefix(rest, "must be at least "), " characters")
		return label + "至少需要 " + n + " 個字元。"
	case strings.HasPrefix(rest, "must be at most "):
		n := strings.TrimSuffix(strings.TrimPrefix(rest, "must be at most "), " characters")
		return label + "不可超過 " + n + " 個字元。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
