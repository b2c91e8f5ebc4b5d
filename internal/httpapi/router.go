package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/common"
	"github.com/suPer8Hu/agent-chat/internal/config"
	"github.com/suPer8Hu/agent-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/agent-chat/internal/httpapi/middleware"
)

// NewRouter wires the JSON API. archive may be nil, in which case /history/archive
// answers 404.
func NewRouter(cfg config.Config, svc *chat.Service, archive *chat.Repo) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	h := handlers.NewHandler(svc, archive)

	r.GET("/ping", h.Ping)

	// agents
	r.GET("/agents", h.ListAgents)
	r.POST("/agents/:agent_id/select", h.SelectAgent)
	r.POST("/agents/:agent_id/conversations", h.NewConversation)
	r.GET("/agents/:agent_id/messages", h.ListAgentMessages)

	// chat
	r.POST("/chat/messages", h.SendChatMessage)

	// history
	r.GET("/history", h.ListHistory)
	r.DELETE("/history", h.ClearHistory)
	r.GET("/history/archive", h.ListArchive)
	r.POST("/history/:id/load", h.LoadHistory)
	r.DELETE("/history/:id", h.DeleteHistory)
	return r
}
