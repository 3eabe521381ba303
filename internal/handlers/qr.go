// internal/handlers/qr.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/jswiatek/sherlock13/internal/session"
)

const qrSize = 256

// QRHandler serves a PNG QR code for joining a session: /qr/{code}. The
// encoded URL points at the public frontend with the code prefilled.
func QRHandler(logger *logrus.Logger, publicURL string, reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/qr/")
		if code == "" || strings.Contains(code, "/") {
			http.Error(w, "missing session code", http.StatusBadRequest)
			return
		}
		if _, ok := reg.Get(code); !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		url := fmt.Sprintf("%s/?code=%s", strings.TrimSuffix(publicURL, "/"), code)
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			logger.Warnf("failed to encode QR for session %s: %v", code, err)
			http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(png); err != nil {
			logger.Warnf("failed to write QR response: %v", err)
		}
	}
}

// HealthzHandler is a trivial liveness probe.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}
}
