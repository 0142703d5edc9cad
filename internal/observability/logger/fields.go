package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para mantener nombres consistentes en todos los logs.

// ───── HTTP ─────

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }

// ───── Dominio ─────

func Provider(v string) zap.Field      { return zap.String("provider", v) }
func AccountID(v string) zap.Field     { return zap.String("account_id", v) }
func ChildID(v string) zap.Field       { return zap.String("child_id", v) }
func StoryID(v string) zap.Field       { return zap.String("story_id", v) }
func AchievementID(v string) zap.Field { return zap.String("achievement_id", v) }

// ───── Jobs / eventos ─────

func Job(v string) zap.Field   { return zap.String("job", v) }
func Event(v string) zap.Field { return zap.String("event", v) }
func Count(v int) zap.Field    { return zap.Int("count", v) }

// ───── Sistema ─────

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
