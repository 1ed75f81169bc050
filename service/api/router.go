package api

import (
	"github.com/gin-gonic/gin"
)

// Router wires every route onto a gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()

	apiRoutes := r.Group("/api")
	{
		accountRoutes := apiRoutes.Group("/accounts")
		{
			accountRoutes.GET("", h.listAccounts)
			accountRoutes.POST("", h.createAccount)
			accountRoutes.DELETE("/:id", h.deleteAccount)
			accountRoutes.GET("/:id/regions", h.listRegions)
			accountRoutes.POST("/:id/regions", h.createRegion)
			accountRoutes.PATCH("/:id/regions/:regionId", h.updateRegion)
		}

		findingRoutes := apiRoutes.Group("/findings")
		{
			findingRoutes.GET("", h.getFindings)
			findingRoutes.GET("/stats", h.getFindingStats)
			findingRoutes.GET("/asset/:resourceId", h.getFindingsByResource)
			findingRoutes.POST("/scan/:accountId", h.scanAccount)
			findingRoutes.POST("/scan", h.scanAllAccounts)
		}

		// Alias routes kept for clients that address the scanner
		// directly.
		scannerRoutes := apiRoutes.Group("/scanner")
		{
			scannerRoutes.POST("/scan/:accountId", h.scanAccount)
			scannerRoutes.POST("/scan-all", h.scanAllAccounts)
		}
	}
	return r
}
