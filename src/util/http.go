package util

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LogHandler provides middleware that logs all requests and response codes
// using logrus.
func LogHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rwi := &rwInterceptor{ResponseWriter: w}
		next.ServeHTTP(rwi, r)
		code := rwi.statusCode
		if code == 0 {
			// Nothing was written, net/http replies with 200.
			code = http.StatusOK
		}

		logger := log.WithField("remote", r.RemoteAddr)
		if code >= 500 {
			logger.Errorf("%s %s -> %d", r.Method, r.URL.Path, code)
		} else if code >= 400 {
			logger.Warnf("%s %s -> %d", r.Method, r.URL.Path, code)
		} else {
			logger.Debugf("%s %s -> %d", r.Method, r.URL.Path, code)
		}
	})
}

type rwInterceptor struct {
	http.ResponseWriter
	statusCode int
}

func (rwi *rwInterceptor) WriteHeader(code int) {
	rwi.statusCode = code
	rwi.ResponseWriter.WriteHeader(code)
}

func (rwi *rwInterceptor) Write(b []byte) (int, error) {
	if rwi.statusCode == 0 {
		rwi.WriteHeader(http.StatusOK)
	}
	return rwi.ResponseWriter.Write(b)
}

// Flush passes flushes through so event streams are not held back.
func (rwi *rwInterceptor) Flush() {
	if flusher, ok := rwi.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
