// Пакет interfaces определяет интерфейсы логирования, которые используют
// компоненты приложения. Компоненты зависят от минимально необходимого
// интерфейса (обычно SimpleLogger), конкретная реализация подставляется
// при инициализации.
package interfaces

// BasicLogger базовый интерфейс, совместимый со стандартным log.Logger.
type BasicLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// LevelLogger определяет интерфейс для логирования с уровнями.
type LevelLogger interface {
	Info(args ...interface{})
	Error(args ...interface{})
	Debug(args ...interface{})
	Warn(args ...interface{})
	Fatal(args ...interface{})
}

// FormattedLevelLogger определяет интерфейс для форматированного логирования с уровнями.
type FormattedLevelLogger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// StackTraceLogger определяет интерфейс для логирования ошибок со стектрейсом.
type StackTraceLogger interface {
	ErrorWithStack(err error, msg string)
	ErrorWithStackf(err error, format string, args ...interface{})
}

// Logger объединяет все интерфейсы логирования.
type Logger interface {
	BasicLogger
	LevelLogger
	FormattedLevelLogger
	StackTraceLogger
}

// SimpleLogger объединяет базовые возможности без стектрейса.
type SimpleLogger interface {
	BasicLogger
	LevelLogger
	FormattedLevelLogger
}
