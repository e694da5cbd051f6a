package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

var now = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestClassify_Limites(t *testing.T) {
	cases := []struct {
		name string
		days int
		want Urgency
	}{
		{"vence hoy", 0, UrgencyExpired},
		{"ya vencido", -3, UrgencyExpired},
		{"un día", 1, UrgencyCritical},
		{"siete días", 7, UrgencyCritical},
		{"ocho días", 8, UrgencyWarning},
		{"treinta días", 30, UrgencyWarning},
		{"treinta y un días", 31, UrgencyNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exp := now.AddDate(0, 0, tc.days)
			assert.Equal(t, tc.days, DaysUntil(exp, now))
			assert.Equal(t, tc.want, Classify(&exp, now))
			// Función pura: mismas entradas, mismo resultado.
			assert.Equal(t, Classify(&exp, now), Classify(&exp, now))
		})
	}
}

func TestDaysUntil_RedondeaHaciaArriba(t *testing.T) {
	// 6 días y 1 hora -> 7 días -> CRITICAL
	exp := now.Add(6*24*time.Hour + time.Hour)
	assert.Equal(t, 7, DaysUntil(exp, now))
	assert.Equal(t, UrgencyCritical, Classify(&exp, now))

	// 30 días y 1 minuto -> 31 -> NORMAL
	exp = now.Add(30*24*time.Hour + time.Minute)
	assert.Equal(t, UrgencyNormal, Classify(&exp, now))

	// Hace 12 horas: ceil(-0.5) = 0 -> EXPIRED
	exp = now.Add(-12 * time.Hour)
	assert.Equal(t, 0, DaysUntil(exp, now))
	assert.Equal(t, UrgencyExpired, Classify(&exp, now))
}

func TestClassify_SinVencimiento(t *testing.T) {
	assert.Equal(t, UrgencyNormal, Classify(nil, now))
}

func TestEffectiveStatus(t *testing.T) {
	base := func(exp *time.Time, status entity.BatchStatus, qty int64) *entity.Batch {
		return &entity.Batch{
			BatchNumber: "B", Quantity: decimal.NewFromInt(qty), AvailableQuantity: decimal.NewFromInt(qty),
			ExpirationDate: exp, Status: status,
		}
	}
	cases := []struct {
		name        string
		batch       *entity.Batch
		want        entity.BatchStatus
		allocatable bool
	}{
		{"normal", base(ptr(now.AddDate(0, 2, 0)), entity.BatchStatusAvailable, 10), entity.BatchStatusAvailable, true},
		{"sin fecha", base(nil, entity.BatchStatusAvailable, 10), entity.BatchStatusAvailable, true},
		{"por vencer", base(ptr(now.AddDate(0, 0, 10)), entity.BatchStatusAvailable, 10), entity.BatchStatusExpiringSoon, true},
		{"vencido por reloj", base(ptr(now.AddDate(0, 0, -1)), entity.BatchStatusAvailable, 10), entity.BatchStatusExpired, false},
		{"vencido persistido", base(ptr(now.AddDate(1, 0, 0)), entity.BatchStatusExpired, 10), entity.BatchStatusExpired, false},
		{"agotado", base(nil, entity.BatchStatusDepleted, 0), entity.BatchStatusDepleted, false},
		{"cantidad cero", base(nil, entity.BatchStatusAvailable, 0), entity.BatchStatusDepleted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EffectiveStatus(tc.batch, now))
			assert.Equal(t, tc.allocatable, Allocatable(tc.batch, now))
		})
	}
}
