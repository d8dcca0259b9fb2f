package logger

import (
	"sync"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

var (
	mu           sync.Mutex
	logger       *zap.Logger
	namedLevels  []namedLevel
	namedLoggers = make(map[string]CtxLogger)
)

type namedLevel struct {
	name  string
	glob  glob.Glob
	level zap.AtomicLevel
}

func init() {
	logger, _ = zap.NewDevelopmentConfig().Build()
}

// SetDefault replaces the root logger, existing named loggers are rebuilt on top of it
func SetDefault(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	*logger = *l
	rebuildNamed()
}

// SetNamedLevels sets levels for named loggers, names may be glob patterns like "welo.*"
func SetNamedLevels(nls []NamedLevel) {
	mu.Lock()
	defer mu.Unlock()
	namedLevels = namedLevels[:0]
	for _, nl := range nls {
		l, err := zap.ParseAtomicLevel(nl.Level)
		if err != nil {
			continue
		}
		g, _ := glob.Compile(nl.Name)
		namedLevels = append(namedLevels, namedLevel{name: nl.Name, glob: g, level: l})
	}
	rebuildNamed()
}

func rebuildNamed() {
	for name, nl := range namedLoggers {
		*(nl.Logger) = *zap.New(logger.Core()).Named(name).WithOptions(zap.IncreaseLevel(getLevel(name)))
	}
}

func Default() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// getLevel returns the level of the first matching name or pattern
func getLevel(name string) zap.AtomicLevel {
	for _, nl := range namedLevels {
		if nl.name == name || (nl.glob != nil && nl.glob.Match(name)) {
			return nl.level
		}
	}
	return zap.NewAtomicLevelAt(logger.Level())
}

func NewNamed(name string, fields ...zap.Field) CtxLogger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := namedLoggers[name]; ok {
		return l
	}
	l := zap.New(logger.Core()).Named(name).WithOptions(
		zap.IncreaseLevel(getLevel(name)),
		zap.Fields(fields...),
	)
	ctxL := CtxLogger{Logger: l, name: name}
	namedLoggers[name] = ctxL
	return ctxL
}
