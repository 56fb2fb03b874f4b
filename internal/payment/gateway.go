package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
)

var ErrOrderFailed = errors.New("payment order creation failed")

// Gateway creates collectable orders for appointment fees. Amounts are
// in minor currency units (paise).
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (orderID string, err error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway wraps the Razorpay Orders API.
func NewRazorpayGateway(keyID, keySecret string) Gateway {
	return &razorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
	}
}

func (g *razorpayGateway) CreateOrder(_ context.Context, amount int64, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": "INR",
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOrderFailed, err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("%w: response missing order id", ErrOrderFailed)
	}
	return orderID, nil
}

type offlineGateway struct{}

// NewOfflineGateway issues local order references for clinic visits paid
// at the desk and for dev environments without gateway credentials.
func NewOfflineGateway() Gateway {
	return offlineGateway{}
}

func (offlineGateway) CreateOrder(_ context.Context, _ int64, _ string) (string, error) {
	return "offline_" + uuid.NewString(), nil
}
