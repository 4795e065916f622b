package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode picks the gin mode for APP_ENV.
func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
