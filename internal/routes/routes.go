package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/MikyMack/stayRare-full/internal/handlers/address"
	"github.com/MikyMack/stayRare-full/internal/handlers/cart"
	"github.com/MikyMack/stayRare-full/internal/handlers/coupon"
	"github.com/MikyMack/stayRare-full/internal/handlers/order"
	"github.com/MikyMack/stayRare-full/internal/middleware"
)

// RegisterRoutes wires the HTTP surface. Cart and checkout run under
// OptionalAuth plus a guest session so anonymous visitors can shop; order
// history and addresses require a login; the admin group is gated twice.
func RegisterRoutes(r *gin.Engine, orders *order.Handler) {
	api := r.Group("/api")

	// Cart (guest or logged in)
	cartGroup := api.Group("/cart", middleware.OptionalAuth(), middleware.GuestSession())
	{
		cartGroup.GET("", cart.GetCart)
		cartGroup.POST("/items", cart.AddItem)
		cartGroup.PUT("/items", cart.UpdateItem)
		cartGroup.DELETE("/items/:itemId", cart.RemoveItem)
		cartGroup.DELETE("", cart.ClearCart)
		cartGroup.POST("/apply-coupon", cart.ApplyCoupon)
		cartGroup.DELETE("/remove-coupon", cart.RemoveCoupon)
	}

	// Checkout (guest or logged in)
	checkout := api.Group("/orders", middleware.OptionalAuth(), middleware.GuestSession())
	{
		checkout.POST("/place-order", orders.PlaceOrder)
		checkout.POST("/confirm-order", orders.ConfirmOrder)
		checkout.GET("/:orderId/confirmation", orders.OrderConfirmation)
	}

	// Order history and lifecycle (login required)
	myOrders := api.Group("/orders", middleware.AuthRequired())
	{
		myOrders.GET("", orders.ListOrders)
		myOrders.GET("/:orderId", orders.GetOrder)
		myOrders.POST("/:orderId/cancel", orders.CancelOrder)
		myOrders.POST("/:orderId/replacement", orders.RequestReplacement)
	}

	// Addresses
	addresses := api.Group("/addresses", middleware.AuthRequired())
	{
		addresses.GET("", address.ListAddresses)
		addresses.POST("", address.CreateAddress)
		addresses.PUT("/:id", address.UpdateAddress)
		addresses.DELETE("/:id", address.DeleteAddress)
	}

	// Admin
	admin := api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/orders", orders.AdminListOrders)
		admin.POST("/orders/:orderId/ship", orders.ShipOrder)
		admin.POST("/orders/:orderId/refresh-tracking", orders.RefreshTracking)
		admin.PATCH("/orders/:orderId/replacement", orders.UpdateReplacementStatus)

		admin.POST("/coupons", coupon.CreateCoupon)
		admin.GET("/coupons", coupon.ListCoupons)
		admin.GET("/coupons/:id", coupon.GetCoupon)
		admin.PUT("/coupons/:id", coupon.UpdateCoupon)
		admin.DELETE("/coupons/:id", coupon.DeleteCoupon)
	}
}
