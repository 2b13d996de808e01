// webhook-sink is a localdev receiver for the bite-engine webhook recorder.
// It accepts fault-event posts and prints them, so the webhook sink can be
// exercised without a real alerting bridge.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type faultEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	SensorID       string    `json:"sensor_id"`
	SensorName     string    `json:"sensor_name"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	Severity       string    `json:"severity"`
	Value          float64   `json:"value"`
	Detail         string    `json:"detail"`
	Recommendation string    `json:"recommendation"`
}

func main() {
	logger := log.New(log.Writer(), "webhook-sink ", log.LstdFlags|log.Lmicroseconds)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var ev faultEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			logger.Printf("bad payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		logger.Printf("fault %s sensor=%s (%s) severity=%s value=%.3f detail=%q",
			ev.Code, ev.SensorID, ev.SensorName, ev.Severity, ev.Value, ev.Detail)
		w.WriteHeader(http.StatusAccepted)
	})

	srv := &http.Server{
		Addr:    ":9000",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9000")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
