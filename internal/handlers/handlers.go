package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/disconnect"
	"github.com/authenticas/authenticas-api/internal/engine"
	"github.com/authenticas/authenticas-api/internal/ledger"
	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/store"
	"github.com/authenticas/authenticas-api/internal/webhook"
)

// Handlers holds all dependencies for the HTTP layer.
type Handlers struct {
	Store      *store.Store
	Logger     *logrus.Logger
	JWTSecret  []byte
	Engine     *engine.Engine
	Links      *links.Registry
	Ledger     *ledger.Ledger
	Audit      *audit.Recorder
	Disconnect *disconnect.Workflow
	Dispatcher *webhook.Dispatcher
}

//
// --- Response Helpers ---
//
// Administrative endpoints use the success/data envelope. The verification
// endpoint has its own flat bodies (see verify_handlers.go).
//

func respondOK(c *gin.Context, status int, data any, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// serverError logs the underlying failure and returns a generic 500 body.
func (h *Handlers) serverError(c *gin.Context, err error, message string) {
	h.Logger.WithError(err).Error(message)
	respondError(c, 500, message)
}
