package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/service"
)

// CtxCapability is the gin.Context key the verified AdminCapability is
// stored under once AdminAuth succeeds.
const CtxCapability = "adminCapability"

// AdminAuth validates the Bearer token in the Authorization header against
// the deployment's admin secret. There is no role hierarchy (§4.5): a
// validating token IS the capability, nothing more is checked.
func AdminAuth(adminSvc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   domain.ErrUnauthorized.Error(),
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		capability, err := adminSvc.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   domain.ErrTokenInvalid.Error(),
			})
			return
		}

		c.Set(CtxCapability, capability)
		c.Next()
	}
}

// GetCapability retrieves the AdminCapability the AdminAuth middleware
// verified for this request. Must only be called on a route chain behind
// AdminAuth.
func GetCapability(c *gin.Context) domain.AdminCapability {
	v, _ := c.Get(CtxCapability)
	cap, _ := v.(domain.AdminCapability)
	return cap
}
