package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	initOnce sync.Once
	shared   *log.Logger
)

// Logger returns the process-wide line logger. Output is one JSON object
// per line; there is no prefix or timestamp beyond what callers encode.
func Logger() *log.Logger {
	initOnce.Do(func() {
		shared = log.New(os.Stdout, "", 0)
	})
	return shared
}

// LogRequest emits a structured log line for an HTTP request. Fields the
// caller does not set are simply absent from the line.
func LogRequest(fields map[string]any) {
	line, err := json.Marshal(fields)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log_marshal_failed"}`)
		return
	}
	Logger().Println(string(line))
}
