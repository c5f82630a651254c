package router

import (
	"github.com/gofiber/fiber/v3"

	classroomhdl "folk_academy/internal/api/classroom/handler"
	contenthdl "folk_academy/internal/api/content/handler"
	"folk_academy/internal/api/middleware"
)

// ⚠️ LƯU Ý FIBER V3: middleware PHẢI được đăng ký qua group.Use(),
// truyền trực tiếp vào router.Get/Post/... sẽ KHÔNG được gọi.
// Vì vậy mọi route có middleware đều đi qua registerRouteWithMiddleware.

// RoutePrefix chứa các prefix cơ bản cho API
type RoutePrefix struct {
	Base string // Prefix cơ bản (/api)
	V1   string // Prefix cho API version 1 (/api/v1)
}

// NewRoutePrefix tạo mới một instance của RoutePrefix với các giá trị mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Router quản lý việc định tuyến cho API
type Router struct {
	app *fiber.App
}

// NewRouter tạo mới một instance của Router
func NewRouter(app *fiber.App) *Router {
	return &Router{app: app}
}

// registerRouteWithMiddleware đăng ký route với middleware qua .Use() (cách đúng theo Fiber v3)
func registerRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	routeGroup := router.Group(prefix)
	for _, mw := range middlewares {
		routeGroup.Use(mw)
	}

	switch method {
	case "GET":
		routeGroup.Get(path, handler)
	case "POST":
		routeGroup.Post(path, handler)
	case "PUT":
		routeGroup.Put(path, handler)
	case "DELETE":
		routeGroup.Delete(path, handler)
	}
}

// SetupRoutes đăng ký toàn bộ route của ứng dụng
func (r *Router) SetupRoutes() error {
	prefix := NewRoutePrefix()
	v1 := r.app.Group(prefix.V1)

	// Health check, không cần xác thực
	r.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	classroomHandler, err := classroomhdl.NewClassroomHandler()
	if err != nil {
		return err
	}
	contentHandler, err := contenthdl.NewContentHandler()
	if err != nil {
		return err
	}

	auth := middleware.AuthMiddleware()
	authOnly := []fiber.Handler{auth}

	// Classroom routes
	// Đọc công khai (frontend hiển thị cây), ghi yêu cầu xác thực
	registerRouteWithMiddleware(v1, "/classroom", "GET", "/children", nil, classroomHandler.HandleGetChildren)
	registerRouteWithMiddleware(v1, "/classroom", "GET", "/hierarchy/:id", nil, classroomHandler.HandleGetHierarchy)
	registerRouteWithMiddleware(v1, "/classroom", "GET", "/:id", nil, classroomHandler.HandleGetById)

	registerRouteWithMiddleware(v1, "/classroom", "POST", "/", authOnly, classroomHandler.HandleCreate)
	registerRouteWithMiddleware(v1, "/classroom", "PUT", "/orders", authOnly, classroomHandler.HandleUpdateOrders)
	registerRouteWithMiddleware(v1, "/classroom", "PUT", "/:id", authOnly, classroomHandler.HandleUpdate)
	registerRouteWithMiddleware(v1, "/classroom", "DELETE", "/", authOnly, classroomHandler.HandleDeleteMany)
	registerRouteWithMiddleware(v1, "/classroom", "DELETE", "/:id", authOnly, classroomHandler.HandleDelete)

	// Maintenance endpoints, chỉ admin gọi tay khi cần
	registerRouteWithMiddleware(v1, "/classroom", "POST", "/cleanup-orphans", authOnly, classroomHandler.HandleCleanupOrphans)
	registerRouteWithMiddleware(v1, "/classroom", "POST", "/sync-content-counts", authOnly, classroomHandler.HandleSyncContentCounts)

	// Content routes
	registerRouteWithMiddleware(v1, "/content", "GET", "/classroom/:classroomId", nil, contentHandler.HandleGetByClassroom)
	registerRouteWithMiddleware(v1, "/content", "GET", "/:id", nil, contentHandler.HandleGetById)

	registerRouteWithMiddleware(v1, "/content", "POST", "/", authOnly, contentHandler.HandleCreate)
	registerRouteWithMiddleware(v1, "/content", "PUT", "/orders", authOnly, contentHandler.HandleUpdateOrders)
	registerRouteWithMiddleware(v1, "/content", "PUT", "/:id", authOnly, contentHandler.HandleUpdate)
	registerRouteWithMiddleware(v1, "/content", "DELETE", "/:id", authOnly, contentHandler.HandleDelete)

	return nil
}
