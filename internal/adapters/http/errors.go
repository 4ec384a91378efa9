package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/dto"
)

// noRoute answers unknown paths with the JSON error envelope.
func noRoute(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no route for "+c.Request.URL.Path)
}

// noMethod answers known paths requested with the wrong method.
func noMethod(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeMethodNotAllowed,
		c.Request.Method+" is not allowed on "+c.Request.URL.Path)
}
