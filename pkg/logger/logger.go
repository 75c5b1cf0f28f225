package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones del logger del servicio.
type Config struct {
	Env     string // development -> consola legible; cualquier otro -> JSON
	Level   string // trace, debug, info, warn, error (default info)
	Service string // nombre del servicio; si no está vacío va como campo base en cada línea
}

// Logger wrapper sobre zerolog para inyección por constructor. Todos los
// componentes reciben *Logger, nunca el global de zerolog.
type Logger struct {
	zl zerolog.Logger
}

// New crea el logger estructurado del proceso. En development escribe consola
// legible; en el resto de entornos JSON una línea por evento. El nivel viene
// de la configuración (LOG_LEVEL), no se fija en código.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	ctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	zl := ctx.Logger()

	// Librerías que loguean por el global de zerolog salen por el mismo sitio.
	log.Logger = zl

	return &Logger{zl: zl}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Eventos por nivel, delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos adicionales.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Zerolog expone el logger interno para APIs que piden zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
