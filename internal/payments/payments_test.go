package payments

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"cybertronic/internal/models"
	"cybertronic/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func TestEncodeDecodeCart(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: "tee", Size: "M", Color: "black", Quantity: 2},
		{ProductID: "cap", Size: "One", Color: "red", Quantity: 1},
	}

	meta, err := EncodeCart(lines)
	require.NoError(t, err)
	assert.Equal(t, "1", meta["cart_chunks"])

	got, err := DecodeCart(meta)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestEncodeCartSplitsLongValues(t *testing.T) {
	var lines []models.CartLine
	for i := 0; i < 40; i++ {
		lines = append(lines, models.CartLine{ProductID: "product-" + strconv.Itoa(i), Size: "XL", Color: "midnight blue", Quantity: i + 1})
	}

	meta, err := EncodeCart(lines)
	require.NoError(t, err)

	chunks, err := strconv.Atoi(meta["cart_chunks"])
	require.NoError(t, err)
	assert.Greater(t, chunks, 1)
	for k, v := range meta {
		assert.LessOrEqual(t, len([]rune(v)), 500, k)
	}

	got, err := DecodeCart(meta)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestEncodeCartTooLarge(t *testing.T) {
	var lines []models.CartLine
	for i := 0; i < 2000; i++ {
		lines = append(lines, models.CartLine{ProductID: strings.Repeat("p", 20), Size: "M", Color: "black", Quantity: 1})
	}

	_, err := EncodeCart(lines)
	assert.True(t, errors.Is(err, ErrCartTooLarge))
}

func TestDecodeCart(t *testing.T) {
	t.Run("legacy single key", func(t *testing.T) {
		got, err := DecodeCart(map[string]string{"cart": `[{"productId":"tee","size":"M","color":"black","quantity":3}]`})
		require.NoError(t, err)
		assert.Equal(t, []models.CartLine{{ProductID: "tee", Size: "M", Color: "black", Quantity: 3}}, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := DecodeCart(map[string]string{})
		assert.ErrorIs(t, err, ErrMissingCart)
	})

	t.Run("missing chunk", func(t *testing.T) {
		_, err := DecodeCart(map[string]string{"cart_chunks": "2", "cart_0": "[]"})
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeCart(map[string]string{"cart": "not json"})
		assert.Error(t, err)
	})
}

func TestUnitAmount(t *testing.T) {
	assert.Equal(t, int64(4999), UnitAmount(decimal.RequireFromString("49.99")))
	assert.Equal(t, int64(1000), UnitAmount(decimal.RequireFromString("10")))
	assert.Equal(t, int64(1001), UnitAmount(decimal.RequireFromString("10.005")))
}

func TestBuildSessionParams(t *testing.T) {
	opts := Options{
		Currency:         "usd",
		AllowedCountries: []string{"US", "CA"},
		SuccessURL:       "https://shop.test/success",
		CancelURL:        "https://shop.test/cancel",
	}
	req := SessionRequest{
		CustomerEmail: "buyer@example.com",
		Items: []models.CartItem{
			{ProductID: "tee", Name: "Tee", Price: decimal.RequireFromString("19.99"), Size: "M", Color: "black", Quantity: 2, Image: "https://cdn.test/tee.png"},
			{ProductID: "cap", Name: "Cap", Price: decimal.RequireFromString("5"), Size: "One", Color: "red", Quantity: 1},
		},
	}

	params, err := BuildSessionParams(opts, req)
	require.NoError(t, err)

	require.Len(t, params.LineItems, 2)
	first := params.LineItems[0]
	assert.Equal(t, int64(1999), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)
	assert.Equal(t, "usd", *first.PriceData.Currency)
	assert.Equal(t, "Size: M, Color: black", *first.PriceData.ProductData.Description)
	require.Len(t, first.PriceData.ProductData.Images, 1)
	assert.Empty(t, params.LineItems[1].PriceData.ProductData.Images)

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "required", *params.BillingAddressCollection)
	assert.True(t, *params.PhoneNumberCollection.Enabled)
	assert.True(t, *params.AutomaticTax.Enabled)
	assert.Len(t, params.ShippingAddressCollection.AllowedCountries, 2)
	assert.Equal(t, "buyer@example.com", *params.CustomerEmail)

	lines, err := DecodeCart(params.Metadata)
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{
		{ProductID: "tee", Size: "M", Color: "black", Quantity: 2},
		{ProductID: "cap", Size: "One", Color: "red", Quantity: 1},
	}, lines)
}

func TestVerifier(t *testing.T) {
	meta, err := EncodeCart([]models.CartLine{{ProductID: "tee", Size: "M", Color: "black", Quantity: 1}})
	require.NoError(t, err)
	payload := testutil.EventPayload(t, "evt_1", EventCheckoutSessionCompleted, testutil.CheckoutSessionObject("cs_1", 4999, meta))
	v := NewVerifier(testSecret)

	t.Run("valid completed session", func(t *testing.T) {
		ev, err := v.Verify(payload, testutil.SignPayload(payload, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		require.NotNil(t, ev.Session)
		assert.Equal(t, "cs_1", ev.Session.ID)
		assert.Equal(t, int64(4999), ev.Session.AmountTotal)
		assert.Equal(t, "buyer@example.com", ev.Session.CustomerEmail)
		assert.Equal(t, "Ada Buyer", ev.Session.CustomerName)
		assert.Equal(t, "Springfield", ev.Session.ShippingAddress.City)

		lines, err := DecodeCart(ev.Session.Metadata)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(payload, testutil.SignPayload(payload, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := v.Verify(payload, "")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		sig := testutil.SignPayload(payload, testSecret, time.Now())
		_, err := v.Verify(append([]byte(" "), payload...), sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("other event type has no session", func(t *testing.T) {
		other := testutil.EventPayload(t, "evt_2", "payment_intent.created", map[string]interface{}{"id": "pi_1", "object": "payment_intent"})
		ev, err := v.Verify(other, testutil.SignPayload(other, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "payment_intent.created", ev.Type)
		assert.Nil(t, ev.Session)
	})
}
