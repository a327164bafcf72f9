package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carlosrabelo/portsec/internal/device"
	"github.com/carlosrabelo/portsec/internal/switchmanager"
)

type connectRequest struct {
	IP       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type portSecurityRequest struct {
	Interface       string `json:"interface"`
	Action          string `json:"action"`
	MaxMac          *int   `json:"max_mac"`
	ViolationAction string `json:"violation_action"`
}

// parseOptionalBody decodes a JSON body when one was sent
func parseOptionalBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (h *handlers) getConfig(c *fiber.Ctx) error {
	return c.JSON(h.manager.Settings())
}

func (h *handlers) updateConfig(c *fiber.Ctx) error {
	var update switchmanager.SettingsUpdate
	if err := parseOptionalBody(c, &update); err != nil {
		return err
	}
	h.manager.UpdateSettings(update)
	return c.JSON(fiber.Map{"status": "success"})
}

func (h *handlers) connect(c *fiber.Ctx) error {
	var req connectRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ok, message := h.manager.Connect(req.IP, req.Username, req.Password)
	return c.JSON(fiber.Map{
		"success":   ok,
		"message":   message,
		"connected": h.manager.Connected(),
	})
}

func (h *handlers) legacyConnect(c *fiber.Ctx) error {
	var req connectRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	res, err := h.manager.LegacyConnect(req.IP, req.Username, req.Password)
	if errors.Is(err, switchmanager.ErrCredentialsRequired) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return c.JSON(fiber.Map{"success": false, "message": res.Message})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   res.Message,
		"output":    res.Output,
		"connected": h.manager.Connected(),
	})
}

func (h *handlers) disconnect(c *fiber.Ctx) error {
	h.manager.Disconnect()
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Disconnected",
		"connected": h.manager.Connected(),
	})
}

func (h *handlers) interfaces(c *fiber.Ctx) error {
	names, err := h.manager.ListInterfaces()
	if err != nil {
		return notConnectedOr(err)
	}
	return c.JSON(fiber.Map{"interfaces": names})
}

func (h *handlers) deviceInfo(c *fiber.Ctx) error {
	info, err := h.manager.DeviceInfo()
	if err != nil {
		return notConnectedOr(err)
	}
	return c.JSON(info)
}

func (h *handlers) portSecurity(c *fiber.Ctx) error {
	var req portSecurityRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	if req.Interface == "" || req.Action == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Interface and action are required")
	}

	var params switchmanager.ActionParams
	if req.Action == "enable" {
		params = switchmanager.ActionParams{MaxMac: req.MaxMac, ViolationAction: req.ViolationAction}
	}
	ok, result := h.manager.ExecutePortSecurityAction(req.Interface, req.Action, params)
	return c.JSON(fiber.Map{
		"success":   ok,
		"result":    result,
		"interface": req.Interface,
		"action":    req.Action,
	})
}

func (h *handlers) logs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"logs": h.manager.Logs(recentLogs)})
}

func (h *handlers) clearLogs(c *fiber.Ctx) error {
	h.manager.ClearLogs()
	return c.JSON(fiber.Map{"status": "success"})
}

// notConnectedOr maps the not-connected precondition to 400 and anything else to 500
func notConnectedOr(err error) error {
	if errors.Is(err, device.ErrNotConnected) {
		return fiber.NewError(fiber.StatusBadRequest, "Not connected to switch")
	}
	return err
}
