package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dollarchain/creditrail/internal/pkg/database"
	"github.com/dollarchain/creditrail/internal/pkg/env"
	"github.com/dollarchain/creditrail/internal/pkg/orders"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"github.com/dollarchain/creditrail/internal/pkg/reconcile"
)

// defaultAmountCents is charged when the caller omits the amount
// (minor currency units).
const defaultAmountCents = 10000

type checkoutRequest struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	Amount   int64  `json:"amount"`
	Credits  int64  `json:"credits"`
}

type mobileChargeRequest struct {
	ClientID string `json:"client_id"`
	Phone    string `json:"phone"`
	Amount   int64  `json:"amount"`
	Credits  int64  `json:"credits"`
	Email    string `json:"email"`
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

// HandleCheckout creates a pending order and hands the customer to the
// hosted card checkout. The order row is committed before the provider
// is contacted; a provider failure leaves a pending order behind, which
// is harmless.
func HandleCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json")
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_client_id")
	}
	if strings.TrimSpace(req.Email) == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_email")
	}
	amount := req.Amount
	if amount <= 0 {
		amount = defaultAmountCents
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	registry := orders.NewRegistry(database.GetDB())
	order, err := registry.CreatePending(ctx, req.ClientID, req.Credits, amount)
	if err != nil {
		log.Errorf("checkout: order insert failed for client %s: %v", req.ClientID, err)
		return jsonError(c, fiber.StatusInternalServerError, "order_create_failed")
	}

	callbackURL := ""
	if domain := publicDomain(); domain != "" {
		callbackURL = domain + "/payments/complete"
	}

	client := paystack.NewClientFromEnv()
	init, err := client.InitializeTransaction(ctx, req.Email, amount, order.Reference, callbackURL)
	if err != nil {
		log.Errorf("checkout: provider initialize failed for %s: %v", order.Reference, err)
		return jsonError(c, fiber.StatusBadGateway, "provider_unavailable")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authorization_url": init.AuthorizationURL,
		"access_code":       init.AccessCode,
		"reference":         order.Reference,
	})
}

// HandleMobileCharge starts an M-PESA STK push against a Kenyan phone
// number. Same order-before-provider rule as checkout.
func HandleMobileCharge(c *fiber.Ctx) error {
	var req mobileChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json")
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_client_id")
	}
	phone, ok := paystack.NormalizeKenyanPhone(req.Phone)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_phone_format")
	}
	amount := req.Amount
	if amount <= 0 {
		amount = defaultAmountCents
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = syntheticEmail(req.ClientID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	registry := orders.NewRegistry(database.GetDB())
	order, err := registry.CreatePending(ctx, req.ClientID, req.Credits, amount)
	if err != nil {
		log.Errorf("mobile charge: order insert failed for client %s: %v", req.ClientID, err)
		return jsonError(c, fiber.StatusInternalServerError, "order_create_failed")
	}

	client := paystack.NewClientFromEnv()
	charge, err := client.ChargeMobileMoney(ctx, email, amount, phone, order.Reference)
	if err != nil {
		log.Errorf("mobile charge: provider charge failed for %s: %v", order.Reference, err)
		return jsonError(c, fiber.StatusBadGateway, "provider_unavailable")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":       charge.Status,
		"display_text": charge.DisplayText,
		"reference":    order.Reference,
	})
}

// HandleVerifyPayment re-verifies a reference with the provider and
// credits the order if the payment turns out successful. Shares the
// reconciler's verification and credit steps with the webhook path.
func HandleVerifyPayment(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json")
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = strings.TrimSpace(c.Query("reference"))
	}
	if reference == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_reference")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	svc := reconcile.NewServiceFromDB(database.GetDB(), paystack.NewClientFromEnv(), webhookSecret())
	outcome := svc.VerifyReference(ctx, reference)

	switch outcome.Kind {
	case reconcile.OutcomeCredited:
		return c.Status(outcome.HTTPStatus).JSON(fiber.Map{
			"ok":            true,
			"credits_added": outcome.CreditsAdded,
			"new_balance":   outcome.NewBalance,
		})
	case reconcile.OutcomeAlreadyProcessed:
		return c.Status(outcome.HTTPStatus).JSON(fiber.Map{"ok": true, "note": "already_processed"})
	case reconcile.OutcomeNotSuccessful:
		return c.Status(outcome.HTTPStatus).JSON(fiber.Map{"ok": false, "status": "not_successful"})
	case reconcile.OutcomeOrderNotFound:
		return jsonError(c, outcome.HTTPStatus, "order_not_found")
	default:
		log.Errorf("verify: reference %s failed: %v", reference, outcome.Err)
		return jsonError(c, outcome.HTTPStatus, "upstream_error")
	}
}

// webhookSecret returns the key Paystack signs webhooks with. Paystack
// signs with the API secret key; a separate override exists for tests.
func webhookSecret() string {
	secret := env.GetEnv("PAYSTACK_WEBHOOK_SECRET", "")
	if secret == "" {
		secret = env.GetEnv("PAYSTACK_SECRET_KEY", "")
	}
	return secret
}
