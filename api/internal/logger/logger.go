package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"

	"checkout/api/internal/config"

	"github.com/golang-cz/devslog"
	"github.com/google/uuid"
)

// Logger prints to the default slog logger and mirrors info, error and fatal
// records as json lines to the log stream.
type Logger struct {
	stream *stream
}

type stream struct {
	mu sync.Mutex
	w  io.Writer
}

func Init(config *config.Config) Logger {
	var w io.Writer = io.Discard
	if config.Log.StreamPath != "" {
		f, err := os.OpenFile(config.Log.StreamPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(err)
		}
		w = f
	}

	slogOpts := &slog.HandlerOptions{}

	if !config.Prod_env {
		slogOpts.Level = slog.LevelDebug
	}

	// new logger with options
	opts := &devslog.Options{
		HandlerOptions:    slogOpts,
		MaxSlicePrintSize: 4,
		SortKeys:          true,
		NewLineAfterLog:   true,
	}

	logger := slog.New(devslog.NewHandler(os.Stdout, opts))

	slog.SetDefault(logger)

	return New(w)
}

// New returns a logger writing its stream to w.
func New(w io.Writer) Logger {
	return Logger{&stream{w: w}}
}

// example Info("Coin", LS_INVOICES, false, "invoice_id", "1000")
func (l Logger) Info(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.log(LL_INFO, message, logStream, isTemplate, args...)
}

// example Error("Coin", LS_INVOICES, false, "invoice_id", "1000", "error", "error text")
func (l Logger) Error(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.log(LL_ERROR, message, logStream, isTemplate, args...)
}

func (l Logger) Fatal(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.log(LL_FATAL, message, logStream, isTemplate, args...)
}

func (l Logger) Debug(message string, args ...any) {
	_, file, line, _ := runtime.Caller(1)

	printLog(LL_DEBUG, message, file, line, args...)
}

func (l Logger) log(ll LogLevel, message string, logStream Logstream, isTemplate bool, args ...any) {
	// log -> Info/Error/Fatal -> [Templ*] -> caller
	skip := 2
	if isTemplate {
		skip = 3
	}

	pc, file, line, _ := runtime.Caller(skip)
	log, err := formatLog(ll, message, logStream, pc, file, line, args...)
	if err != nil {
		fmt.Printf("%s:%d: format log error: %v\n", file, line, err)
		return
	}

	printLog(ll, message, file, line, args...)
	l.send(log)
}

func printLog(ll LogLevel, message string, file string, line int, args ...any) {
	args = append(args, "source", file+":"+strconv.Itoa(line))
	switch ll {
	case LL_ERROR:
		slog.Error(message, args...)
	case LL_INFO:
		slog.Info(message, args...)
	case LL_FATAL:
		slog.Error(message, args...)
	case LL_DEBUG:
		slog.Debug(message, args...)
	}
}

func (l Logger) send(buffer []byte) {
	if l.stream == nil {
		return
	}

	l.stream.mu.Lock()
	defer l.stream.mu.Unlock()

	if _, err := l.stream.w.Write(append(buffer, '\n')); err != nil {
		fmt.Println("Error sending:", err)
	}
}

func formatLog(ll LogLevel, message string, logStream Logstream, pc uintptr, file string, line int, args ...any) (log []byte, err error) {
	var callerFunc string
	if fn := runtime.FuncForPC(pc); fn != nil {
		callerFunc = fn.Name()
	}

	logMessage := LogMessage{
		Message:   message,
		LogLevel:  ll.ToString(),
		LogStream: logStream.ToString(),
		Args:      make(map[string]interface{}),
		Source: Source{
			Function: callerFunc,
			File:     file,
			Line:     line,
		},
		AppInfo: AppInfo{
			Pid:       os.Getpid(),
			GoVersion: runtime.Version(),
		},
	}

	if len(args)%2 != 0 {
		return nil, fmt.Errorf("odd number of args: %d", len(args))
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, fmt.Errorf("the key must be a string: %v", args[i])
		}
		logMessage.Args[key] = args[i+1]
	}

	return json.Marshal(logMessage)
}

func AnyToStr(t any) string {
	return fmt.Sprintf("%v", t)
}

func GenErrorId() string {
	var errorId string
	uuid, err := uuid.NewRandom()
	if err != nil {
		errorId = NA
	} else {
		errorId = uuid.String()
	}
	return errorId
}
