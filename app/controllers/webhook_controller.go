package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dollarchain/creditrail/internal/pkg/database"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"github.com/dollarchain/creditrail/internal/pkg/reconcile"
)

// HandlePaymentWebhook receives provider notifications. The raw body is
// copied before anything touches it; the signature covers the exact
// bytes on the wire.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := firstHeaderValue(c, "X-Paystack-Signature")

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	svc := reconcile.NewServiceFromDB(database.GetDB(), paystack.NewClientFromEnv(), webhookSecret())
	outcome := svc.ProcessWebhook(ctx, rawBody, signature)

	return c.Status(outcome.HTTPStatus).JSON(webhookResponseBody(outcome))
}

func webhookResponseBody(outcome *reconcile.Outcome) fiber.Map {
	switch outcome.Kind {
	case reconcile.OutcomeCredited:
		return fiber.Map{"ok": true, "credits_added": outcome.CreditsAdded, "new_balance": outcome.NewBalance}
	case reconcile.OutcomeDuplicate:
		return fiber.Map{"ok": true, "duplicate": true}
	case reconcile.OutcomeQueued:
		return fiber.Map{"ok": true, "queued": true}
	case reconcile.OutcomeIgnored:
		return fiber.Map{"ok": true, "ignored": true}
	case reconcile.OutcomeAlreadyProcessed:
		return fiber.Map{"ok": true, "note": "already_processed"}
	case reconcile.OutcomeNotSuccessful:
		return fiber.Map{"ok": true, "note": "not_successful"}
	case reconcile.OutcomeNoReference:
		return fiber.Map{"ok": true, "note": "no_reference_logged"}
	case reconcile.OutcomeRejectedSignature:
		return fiber.Map{"error": "invalid_signature"}
	case reconcile.OutcomeRejectedPayload:
		return fiber.Map{"error": "invalid_payload"}
	default:
		return fiber.Map{"error": "webhook_persist_failed"}
	}
}
