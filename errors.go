package lottery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量
const (
	// 系统级错误 (1000-1999)
	ErrCodeSystem             ErrorCode = "LOTTERY_1000"
	ErrCodeStorageUnavailable ErrorCode = "LOTTERY_1001"
	ErrCodeConfigInvalid      ErrorCode = "LOTTERY_1004"

	// 校验错误 (2000-2999)
	ErrCodeInvalidParameters     ErrorCode = "LOTTERY_2000"
	ErrCodeMalformedDate         ErrorCode = "LOTTERY_2001"
	ErrCodeInvalidNumberCount    ErrorCode = "LOTTERY_2002"
	ErrCodeOutOfRange            ErrorCode = "LOTTERY_2003"
	ErrCodeDuplicateRankedNumber ErrorCode = "LOTTERY_2004"
	ErrCodeNotADrawDay           ErrorCode = "LOTTERY_2005"
	ErrCodeInvalidRange          ErrorCode = "LOTTERY_2006"
	ErrCodeInvalidCount          ErrorCode = "LOTTERY_2007"
	ErrCodeInvalidLockTimeout    ErrorCode = "LOTTERY_2010"
	ErrCodeInvalidRetryAttempts  ErrorCode = "LOTTERY_2011"
	ErrCodeInvalidRetryInterval  ErrorCode = "LOTTERY_2012"

	// 分析错误 (2500-2599)
	ErrCodeInsufficientHistory ErrorCode = "LOTTERY_2500"

	// 锁相关错误 (3000-3999)
	ErrCodeLockAcquisitionFailed ErrorCode = "LOTTERY_3000"
	ErrCodeLockTimeout           ErrorCode = "LOTTERY_3001"
	ErrCodeLockReleaseFailure    ErrorCode = "LOTTERY_3002"

	// 限流相关错误 (5000-5999)
	ErrCodeCircuitBreakerOpen ErrorCode = "LOTTERY_5002"

	// 状态相关错误 (6000-6999)
	ErrCodeStateNotFound         ErrorCode = "LOTTERY_6000"
	ErrCodeStateSaveFailure      ErrorCode = "LOTTERY_6001"
	ErrCodeStateLoadFailure      ErrorCode = "LOTTERY_6002"
	ErrCodeStateCorrupted        ErrorCode = "LOTTERY_6003"
	ErrCodeSerializationFailed   ErrorCode = "LOTTERY_6004"
	ErrCodeDeserializationFailed ErrorCode = "LOTTERY_6005"
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
	SeverityInfo     ErrorSeverity = "info"
)

// LotteryError 增强的错误类型
type LotteryError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Details    string         `json:"details,omitempty"`
	Severity   ErrorSeverity  `json:"severity"`
	Timestamp  time.Time      `json:"timestamp"`
	Operation  string         `json:"operation,omitempty"`
	StackTrace string         `json:"stack_trace,omitempty"`
	Cause      error          `json:"-"`
	Retryable  bool           `json:"retryable"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Error 实现 error 接口
func (e *LotteryError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 实现 errors.Unwrap 接口
func (e *LotteryError) Unwrap() error {
	return e.Cause
}

// Is 实现 errors.Is 接口, 按错误代码比较
func (e *LotteryError) Is(target error) bool {
	if t, ok := target.(*LotteryError); ok {
		return e.Code == t.Code
	}
	return false
}

// clone returns a shallow copy so the predefined errors are never mutated
func (e *LotteryError) clone() *LotteryError {
	cp := *e
	cp.Timestamp = time.Now()
	if e.Metadata != nil {
		cp.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// WithCause 返回附带原因错误的副本
func (e *LotteryError) WithCause(cause error) *LotteryError {
	cp := e.clone()
	cp.Cause = cause
	return cp
}

// WithDetails 返回附带详细信息的副本
func (e *LotteryError) WithDetails(details string) *LotteryError {
	cp := e.clone()
	cp.Details = details
	return cp
}

// WithOperation 返回附带操作信息的副本
func (e *LotteryError) WithOperation(operation string) *LotteryError {
	cp := e.clone()
	cp.Operation = operation
	return cp
}

// WithMetadata 返回附带元数据的副本
func (e *LotteryError) WithMetadata(key string, value any) *LotteryError {
	cp := e.clone()
	if cp.Metadata == nil {
		cp.Metadata = make(map[string]any)
	}
	cp.Metadata[key] = value
	return cp
}

// WithStackTrace 添加堆栈跟踪
func (e *LotteryError) WithStackTrace() *LotteryError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// NewError 创建新的错误
func NewError(code ErrorCode, message string) *LotteryError {
	return &LotteryError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
	}
}

// NewRetryableError 创建可重试的错误
func NewRetryableError(code ErrorCode, message string) *LotteryError {
	err := NewError(code, message)
	err.Retryable = true
	return err
}

// NewCriticalError 创建严重错误
func NewCriticalError(code ErrorCode, message string) *LotteryError {
	err := NewError(code, message)
	err.Severity = SeverityCritical
	return err.WithStackTrace()
}

// 预定义的错误实例
var (
	// 系统级错误
	ErrSystemError        = NewCriticalError(ErrCodeSystem, "system error occurred")
	ErrStorageUnavailable = NewRetryableError(ErrCodeStorageUnavailable, "draw store unavailable")
	ErrConfigInvalid      = NewCriticalError(ErrCodeConfigInvalid, "configuration is invalid")

	// 校验错误
	ErrInvalidParameters     = NewError(ErrCodeInvalidParameters, "invalid parameters provided")
	ErrMalformedDate         = NewError(ErrCodeMalformedDate, "malformed draw date")
	ErrInvalidNumberCount    = NewError(ErrCodeInvalidNumberCount, "wrong amount of numbers in draw")
	ErrOutOfRange            = NewError(ErrCodeOutOfRange, "number out of range")
	ErrDuplicateRankedNumber = NewError(ErrCodeDuplicateRankedNumber, "duplicate ranked number")
	ErrNotADrawDay           = NewError(ErrCodeNotADrawDay, "date is not a drawing day")
	ErrInvalidRange          = NewError(ErrCodeInvalidRange, "invalid range: min must be less than or equal to max")
	ErrInvalidCount          = NewError(ErrCodeInvalidCount, "invalid count: must be greater than 0 and fit the range")
	ErrInvalidLockTimeout    = NewError(ErrCodeInvalidLockTimeout, "invalid lock timeout: must be between 1s and 5m")
	ErrInvalidRetryAttempts  = NewError(ErrCodeInvalidRetryAttempts, "invalid retry attempts: must be between 0 and 10")
	ErrInvalidRetryInterval  = NewError(ErrCodeInvalidRetryInterval, "invalid retry interval: cannot be negative")

	// 分析错误
	ErrInsufficientHistory = NewError(ErrCodeInsufficientHistory, "insufficient history for frequency pick")

	// 锁相关错误
	ErrLockAcquisitionFailed = NewRetryableError(ErrCodeLockAcquisitionFailed, "failed to acquire distributed lock")
	ErrLockTimeout           = NewRetryableError(ErrCodeLockTimeout, "lock acquisition timeout")
	ErrLockReleaseFailure    = NewError(ErrCodeLockReleaseFailure, "failed to release lock")

	// 限流相关错误
	ErrCircuitBreakerOpen = NewRetryableError(ErrCodeCircuitBreakerOpen, "circuit breaker is open")

	// 状态相关错误
	ErrStateNotFound         = NewError(ErrCodeStateNotFound, "state not found")
	ErrStateSaveFailure      = NewRetryableError(ErrCodeStateSaveFailure, "failed to save state")
	ErrStateLoadFailure      = NewRetryableError(ErrCodeStateLoadFailure, "failed to load state")
	ErrStateCorrupted        = NewError(ErrCodeStateCorrupted, "state data is corrupted")
	ErrSerializationFailed   = NewError(ErrCodeSerializationFailed, "serialization failed")
	ErrDeserializationFailed = NewError(ErrCodeDeserializationFailed, "deserialization failed")
)

// ValidationError reports why a candidate was rejected.
// Reason is one of ErrMalformedDate, ErrInvalidNumberCount, ErrOutOfRange,
// ErrDuplicateRankedNumber or ErrNotADrawDay.
type ValidationError struct {
	Reason *LotteryError `json:"reason"`
	Field  string        `json:"field"`
	Value  any           `json:"value,omitempty"`
}

// newValidationError builds a ValidationError for the given reason
func newValidationError(reason *LotteryError, field string, value any) *ValidationError {
	return &ValidationError{Reason: reason, Field: field, Value: value}
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s (%v): %s", e.Field, e.Value, e.Reason.Message)
}

// Unwrap exposes the reason so errors.Is(err, ErrOutOfRange) works
func (e *ValidationError) Unwrap() error { return e.Reason }

// IsValidationError reports whether err is a candidate rejection
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrorHandler 错误处理器接口
type ErrorHandler interface {
	HandleError(ctx context.Context, err error) error
	ShouldRetry(err error) bool
	GetRetryDelay(attempt int, err error) time.Duration
}

// DefaultErrorHandler 默认错误处理器
type DefaultErrorHandler struct {
	logger        Logger
	baseDelay     time.Duration
	maxDelay      time.Duration
	backoffFactor float64
}

// NewDefaultErrorHandler 创建默认错误处理器
func NewDefaultErrorHandler(logger Logger, baseDelay time.Duration) *DefaultErrorHandler {
	if baseDelay <= 0 {
		baseDelay = DefaultRetryInterval
	}
	return &DefaultErrorHandler{
		logger:        logger,
		baseDelay:     baseDelay,
		maxDelay:      5 * time.Second,
		backoffFactor: 2.0,
	}
}

// HandleError 处理错误, 非 LotteryError 包装为系统错误
func (h *DefaultErrorHandler) HandleError(_ context.Context, err error) error {
	if err == nil {
		return nil
	}

	var lotteryErr *LotteryError
	if !errors.As(err, &lotteryErr) {
		lotteryErr = ErrSystemError.WithCause(err)
		h.logger.Error("Unclassified error: %v", err)
		return lotteryErr
	}

	switch lotteryErr.Severity {
	case SeverityCritical, SeverityHigh:
		h.logger.Error("Severe error [%s]: %v", lotteryErr.Severity, err)
	default:
		h.logger.Debug("Error [%s]: %v", lotteryErr.Severity, err)
	}
	return err
}

// ShouldRetry 判断是否应该重试
func (h *DefaultErrorHandler) ShouldRetry(err error) bool {
	var lotteryErr *LotteryError
	if errors.As(err, &lotteryErr) {
		return lotteryErr.Retryable
	}
	return IsRetryableError(err)
}

// GetRetryDelay 获取重试延迟 (指数退避 + ±25% 抖动)
func (h *DefaultErrorHandler) GetRetryDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return h.baseDelay
	}

	delay := time.Duration(float64(h.baseDelay) * math.Pow(h.backoffFactor, float64(attempt-1)))
	jitter := time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
	delay += jitter

	if delay > h.maxDelay {
		delay = h.maxDelay
	}
	return delay
}

// IsRetryableError 检查是否为可重试错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var lotteryErr *LotteryError
	if errors.As(err, &lotteryErr) {
		return lotteryErr.Retryable
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"i/o timeout",
		"dial tcp",
		"server closed",
		"database is locked",
		"redis: connection pool timeout",
		"redis: client is closed",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// ErrorRecovery 错误恢复策略
type ErrorRecovery struct {
	handler    ErrorHandler
	maxRetries int
	logger     Logger
}

// NewErrorRecovery 创建错误恢复策略
func NewErrorRecovery(handler ErrorHandler, maxRetries int, logger Logger) *ErrorRecovery {
	return &ErrorRecovery{
		handler:    handler,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ExecuteWithRetry 执行带重试的操作, 返回最后一次的错误
func (r *ErrorRecovery) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return ErrSystemError.WithDetails("operation cancelled").WithCause(err)
		}

		err := operation()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Operation succeeded after %d retries", attempt)
			}
			return nil
		}

		lastErr = r.handler.HandleError(ctx, err)
		if !r.handler.ShouldRetry(lastErr) {
			r.logger.Debug("Error is not retryable: %v", lastErr)
			return lastErr
		}

		if attempt < r.maxRetries {
			delay := r.handler.GetRetryDelay(attempt+1, lastErr)
			r.logger.Debug("Retrying operation in %v (attempt %d/%d)", delay, attempt+1, r.maxRetries)

			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}
