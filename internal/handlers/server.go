// internal/handlers/server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/session"
)

// EngineServer bundles the session registry with the connection hub. One
// instance is created per process and shared by all HTTP/WS handlers.
type EngineServer struct {
	Registry *session.Registry
	Hub      *Hub
	Logger   *logrus.Logger
}

// NewEngineServer wires a hub around the given registry.
func NewEngineServer(reg *session.Registry, logger *logrus.Logger) *EngineServer {
	return &EngineServer{
		Registry: reg,
		Hub:      NewHub(logger),
		Logger:   logger,
	}
}
