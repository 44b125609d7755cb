package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dollarchain/creditrail/internal/pkg/database"
	"github.com/dollarchain/creditrail/internal/pkg/ledger"
)

type addCreditsRequest struct {
	ClientID string `json:"client_id"`
	Amount   int64  `json:"amount"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason"`
}

// HandleAdminAddCredits grants credits manually. Reached only through
// the master-key middleware.
func HandleAdminAddCredits(c *fiber.Ctx) error {
	var req addCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json")
	}
	if strings.TrimSpace(req.ClientID) == "" || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_payload",
			"message": "client_id and positive integer amount required",
		})
	}
	reason := req.Reason
	if reason == "" {
		reason = "manual_topup"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := ledger.NewServiceFromDB(database.GetDB())
	newBalance, err := svc.Grant(ctx, req.ClientID, req.Amount, req.Actor, reason)
	if err != nil {
		if errors.Is(err, ledger.ErrCustomerNotFound) {
			return jsonError(c, fiber.StatusNotFound, "customer_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "new_balance": newBalance})
}
