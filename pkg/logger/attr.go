package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID records the account identifier under the key "account_id".
// If id is nil, it returns an empty Attr.
func AccountID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("account_id", id)
}

// Provider records the social provider name under the key "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Intent records the declared resolution intent under the key "intent".
func Intent(intent string) slog.Attr {
	return slog.String("intent", intent)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Reason records a conflict or failure reason under the key "reason".
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}
