package routes

import (
	"aquamonitor/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterAlertRoutes(api *gin.RouterGroup, alertController *controllers.AlertController) {
	alertRoutes := api.Group("/alerts")
	{
		alertRoutes.GET("", alertController.GetAlerts)
		alertRoutes.POST("", alertController.CreateAlert)
		alertRoutes.PUT("/:id/resolve", alertController.ResolveAlert)
		alertRoutes.DELETE("/:id", alertController.DeleteAlert)
	}
}
