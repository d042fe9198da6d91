package routes

import (
	"aquamonitor/internal/controllers"
	"aquamonitor/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterAnalyticsRoutes(api *gin.RouterGroup, analyticsController *controllers.AnalyticsController, jwtSecret string) {
	analyticsRoutes := api.Group("/analytics")
	{
		analyticsRoutes.GET("/dashboard", analyticsController.GetDashboard)
		analyticsRoutes.GET("/consumption", analyticsController.GetConsumptionHistory)
		analyticsRoutes.POST("/predict", analyticsController.Predict)
		analyticsRoutes.GET("/predictions", analyticsController.GetPredictions)
		analyticsRoutes.GET("/model/status", analyticsController.GetModelStatus)
		analyticsRoutes.POST("/model/train", middleware.AdminAuthMiddleware(jwtSecret), analyticsController.TrainModel)
	}
}
