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

type useCreditsRequest struct {
	ClientID string `json:"client_id"`
	Amount   int64  `json:"amount"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason"`
}

// HandleUseCredits spends credits from a client balance.
func HandleUseCredits(c *fiber.Ctx) error {
	var req useCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json")
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_client_id")
	}
	if req.Amount <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_amount")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := ledger.NewServiceFromDB(database.GetDB())
	newBalance, err := svc.Spend(ctx, req.ClientID, req.Amount, req.Actor, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrCustomerNotFound):
			return jsonError(c, fiber.StatusNotFound, "customer_not_found")
		case errors.Is(err, ledger.ErrInvalidAmount):
			return jsonError(c, fiber.StatusBadRequest, "invalid_amount")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"success": false, "error": "insufficient_funds"})
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error")
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "new_balance": newBalance})
}

// HandleGetCredits returns the balance snapshot for a client.
func HandleGetCredits(c *fiber.Ctx) error {
	clientID := strings.TrimSpace(c.Query("client_id"))
	if clientID == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_client_id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := ledger.NewServiceFromDB(database.GetDB())
	snap, err := svc.GetBalance(ctx, clientID)
	if err != nil {
		if errors.Is(err, ledger.ErrCustomerNotFound) {
			return jsonError(c, fiber.StatusNotFound, "customer_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"credits": snap.Credits, "blocked": snap.Blocked})
}
