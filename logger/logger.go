package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type SourceLogger struct {
	zerolog.Logger
}

// Track is a convenience function to track time spent
func (l *SourceLogger) Track(msg string) (string, time.Time) {
	return msg, time.Now()
}

// Duration logs a debug message with the time elapsed between the provided start and the current time.
// Use in conjunction with Track. e.g.
//
//	log := logger.WithContext(...)
//	defer log.Duration(log.Track("Run Main"))
func (l *SourceLogger) Duration(msg string, start time.Time) {
	l.Debug().Msgf("%v elapsed time: %v", msg, time.Since(start))
}

var Logger = &SourceLogger{
	zerolog.New(os.Stderr).With().Timestamp().Logger(),
}

// enable pretty printing for interactive terminals and json for production.
func init() {
	// for tty terminal enable pretty logs
	if isatty.IsTerminal(os.Stdout.Fd()) && runtime.GOOS != "windows" {
		Logger = &SourceLogger{Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})}
	} else {
		// UNIX Time is faster and smaller than most timestamps
		// If you set zerolog.TimeFieldFormat to an empty string,
		// logs will write with UNIX time.
		zerolog.TimeFieldFormat = ""
	}
	// by default only log warnings (and above)
	Logger.Logger = Logger.Level(zerolog.WarnLevel)
}

// Sets log level. Default is "warn"
// Available levels are: "trace" "debug" "info" "warn" "error" "fatal" "panic" or "disabled"
func SetLogLevel(l string) error {
	if level, err := zerolog.ParseLevel(strings.ToLower(l)); err != nil {
		return err
	} else {
		Logger.Logger = Logger.Level(level)
	}
	return nil
}

// Sets logging output. Default is os.Stderr. If in terminal, pretty logs are enabled.
func SetLogOutput(w io.Writer) {
	Logger.Logger = Logger.Output(w)
}

// Sets log to debug. 0
// You must call Msg on the returned event in order to send the event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Sets log to info. 1
// You must call Msg on the returned event in order to send the event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Sets log to error. 3
// You must call Msg on the returned event in order to send the event.
func Err(err error) *zerolog.Event {
	return Logger.Err(err)
}

// WithContext sets the sourceId and pipelineId to be used as fields.
func WithContext(sourceId string, pipelineId string) *SourceLogger {
	return &SourceLogger{Logger.With().Str("sourceId", sourceId).Str("pipelineId", pipelineId).Logger()}
}
