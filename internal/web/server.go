// Package web exposes the session manager as a JSON API for the control panel.
package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carlosrabelo/portsec/internal/device"
	"github.com/carlosrabelo/portsec/internal/switchmanager"
)

// recentLogs is how many audit entries GET /api/logs returns
const recentLogs = 50

// SessionManager is the part of switchmanager.Manager the routes use
type SessionManager interface {
	Settings() switchmanager.Settings
	UpdateSettings(update switchmanager.SettingsUpdate) switchmanager.Settings
	Connect(ip, username, password string) (bool, string)
	LegacyConnect(ip, username, password string) (switchmanager.LegacyResult, error)
	Disconnect()
	Connected() bool
	ListInterfaces() ([]string, error)
	DeviceInfo() (device.DeviceInfo, error)
	ExecutePortSecurityAction(iface, action string, params switchmanager.ActionParams) (bool, string)
	Logs(n int) []switchmanager.LogEntry
	ClearLogs()
}

type handlers struct {
	manager SessionManager
}

// New builds the fiber application with every route registered
func New(manager SessionManager, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "portsec",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(RequestLogger(log))

	SetupRoutes(app, manager)
	return app
}

// SetupRoutes registers the API on app
func SetupRoutes(app *fiber.App, manager SessionManager) {
	h := &handlers{manager: manager}

	api := app.Group("/api")
	api.Get("/config", h.getConfig)
	api.Post("/config", h.updateConfig)
	api.Post("/connect", h.connect)
	api.Post("/legacy-connect", h.legacyConnect)
	api.Post("/disconnect", h.disconnect)
	api.Get("/interfaces", h.interfaces)
	api.Get("/device", h.deviceInfo)
	api.Post("/port-security", h.portSecurity)
	api.Get("/logs", h.logs)
	api.Post("/logs/clear", h.clearLogs)

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("Port security panel is running")
	})
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			l := requestLogger(c, &log)
			l.Error().Err(err).Msg("Request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
