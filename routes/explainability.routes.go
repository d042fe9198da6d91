package routes

import (
	"aquamonitor/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterExplainabilityRoutes(api *gin.RouterGroup, explainabilityController *controllers.ExplainabilityController) {
	explainRoutes := api.Group("/explainability")
	{
		explainRoutes.GET("/analysis", explainabilityController.GetAnalysis)
		explainRoutes.GET("/report", explainabilityController.GetReport)
	}
}
