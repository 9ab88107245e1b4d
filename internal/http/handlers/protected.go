package handlers

import (
	"net/http"

	"github.com/geocoder89/authhub/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// Protected only runs behind the auth middleware.
func Protected(ctx *gin.Context) {
	userID, ok := actorctx.UserIDFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "access_denied", "Access denied", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "This is protected content",
		"userId":  userID,
	})
}
