package routes

import (
	"aquamonitor/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterTankRoutes(api *gin.RouterGroup, tankController *controllers.TankController) {
	tankRoutes := api.Group("/tanks")
	{
		tankRoutes.GET("", tankController.GetTanks)
		tankRoutes.POST("", tankController.CreateTank)
		tankRoutes.GET("/:id", tankController.GetTankByID)
		tankRoutes.PUT("/:id", tankController.UpdateTank)
		tankRoutes.PUT("/:id/level", tankController.UpdateTankLevel)
		tankRoutes.DELETE("/:id", tankController.DeleteTank)
	}
}
