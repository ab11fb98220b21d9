package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/constants"
	apierrors "github.com/yukikurage/taskhub/internal/errors"
)

// RequireEntityID parses the :id route parameter. An id that is not a positive integer
// cannot name any row, so it is answered like a missing one.
func RequireEntityID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.NotFound(c, "")
			return
		}

		c.Set(constants.ContextKeyEntityID, id)
		c.Next()
	}
}

// GetEntityID returns the id parsed by RequireEntityID
func GetEntityID(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyEntityID)
}
