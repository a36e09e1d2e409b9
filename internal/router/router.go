package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/tour-checkout/internal/handler" // import the handlers that implement the checkout flow
)

// RegisterRoutes registers routes that do not belong to the checkout
// flow on the provided Echo instance. Currently it exposes only a
// health check, used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCheckout registers the order creation and capture endpoints.
// The optional middleware (the Redis token bucket in production) is
// applied to the whole group so a runaway client cannot hammer the
// payment gateway through this service.
func RegisterCheckout(e *echo.Echo, h *handler.OrderHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/orders", mw...)
	// Create a gateway order from a cart snapshot.
	g.POST("", h.CreateOrder)
	// Capture a previously approved gateway order. Safe to repeat: the
	// second call replays the stored result instead of re-charging.
	g.POST("/:id/capture", h.CaptureOrder)
	// Invoice document for a captured order; the target of the QR
	// reference printed on the rendered invoice.
	g.GET("/:id/invoice", h.Invoice)
}
