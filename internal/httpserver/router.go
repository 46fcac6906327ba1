package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	pkgdb "github.com/Skotchmaster/shoe_store/pkg/db"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

type Deps struct {
	DB       *gorm.DB
	Auth     *authmw.Middleware
	Users    *UsersHTTP
	Products *ProductsHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Orders   *OrdersHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("ready_check_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	protect := d.Auth.Protect
	admin := authmw.RestrictTo(models.RoleAdmin)
	sellers := authmw.RestrictTo(models.RoleSeller, models.RoleAdmin)

	v1 := e.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/signup", d.Users.Signup)
	users.POST("/login", d.Users.Login)
	users.GET("/logout", d.Users.Logout)
	users.PATCH("/update-password", d.Users.UpdatePassword, protect)
	users.GET("/me", d.Users.Me, protect)
	users.PATCH("/me", d.Users.UpdateMe, protect)
	users.DELETE("/me", d.Users.DeleteMe, protect)
	users.GET("", d.Users.List, protect, admin)
	users.GET("/:id", d.Users.Get, protect, admin)

	products := v1.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/mine", d.Products.Mine, protect, sellers)
	products.GET("/:id", d.Products.Get)
	products.POST("", d.Products.Create, protect, sellers)
	products.POST("/import", d.Products.Import, protect, sellers)
	products.PATCH("/:id", d.Products.Update, protect, sellers)
	products.DELETE("/:id", d.Products.Delete, protect, sellers)

	cart := v1.Group("/cart", protect)
	cart.GET("", d.Cart.Get)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/:id", d.Cart.Add)
	cart.PATCH("/:id/decrement", d.Cart.Decrement)
	cart.DELETE("/:id", d.Cart.Remove)

	checkout := v1.Group("/checkout")
	checkout.GET("", d.Checkout.Session, protect)
	checkout.POST("/webhook", d.Checkout.Webhook)

	orders := v1.Group("/orders", protect)
	orders.GET("", d.Orders.Mine)
	orders.GET("/all", d.Orders.All, admin)
	orders.GET("/:id", d.Orders.Get)
	orders.PATCH("/:id/status", d.Orders.SetStatus, admin)
}
