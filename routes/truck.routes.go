package routes

import (
	"aquamonitor/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterTruckRoutes(api *gin.RouterGroup, truckController *controllers.TruckController) {
	truckRoutes := api.Group("/trucks")
	{
		truckRoutes.GET("", truckController.GetTrucks)
		truckRoutes.POST("", truckController.CreateTruck)
		truckRoutes.GET("/:id", truckController.GetTruckByID)
		truckRoutes.PUT("/:id", truckController.UpdateTruck)
		truckRoutes.PUT("/:id/status", truckController.UpdateTruckStatus)
		truckRoutes.DELETE("/:id", truckController.DeleteTruck)
	}
}
