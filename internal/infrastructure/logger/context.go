package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with other
// packages.
type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	shopIDKey    contextKey = "shop_id"
)

// WithContext attaches the logger to the context.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached by WithContext, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// enrich stores value under key and returns the context carrying a logger
// with the matching zap field, plus that logger for immediate use.
func enrich(ctx context.Context, l *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	l = l.With(zap.String(string(key), value))
	return WithContext(ctx, l), l
}

// WithRequestID records the request ID on the context and logger.
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return enrich(ctx, l, requestIDKey, requestID)
}

// WithTenantID records the tenant ID on the context and logger.
func WithTenantID(ctx context.Context, l *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	return enrich(ctx, l, tenantIDKey, tenantID)
}

// WithShopID records the shop ID on the context and logger.
func WithShopID(ctx context.Context, l *zap.Logger, shopID string) (context.Context, *zap.Logger) {
	return enrich(ctx, l, shopIDKey, shopID)
}

// GetRequestID returns the request ID stored by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetTenantID returns the tenant ID stored by WithTenantID, or "".
func GetTenantID(ctx context.Context) string {
	return stringValue(ctx, tenantIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
