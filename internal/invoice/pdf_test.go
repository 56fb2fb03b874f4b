package invoice

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelink/telemed-backend/internal/appointment"
)

func TestRender(t *testing.T) {
	orderID := "order_xyz"
	d := &appointment.Detail{
		Appointment: appointment.Appointment{
			ID:             uuid.New(),
			VisitDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Start:          11 * 60,
			End:            12 * 60,
			VisitType:      appointment.VisitVideo,
			Status:         appointment.StatusConfirmed,
			PaymentStatus:  appointment.PaymentPaid,
			Amount:         80000,
			PaymentOrderID: &orderID,
		},
		PatientName:    "Asha Rao",
		DoctorName:     "Dr. Mehta",
		Specialization: "Cardiology",
	}

	data, err := Render(d)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "INR 800.00", formatAmount(80000))
	assert.Equal(t, "INR 0.50", formatAmount(50))
	assert.Equal(t, "INR 1234.05", formatAmount(123405))
}
