package inventory

import (
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// Urgency nivel de urgencia de un lote según los días que faltan para su vencimiento.
type Urgency string

const (
	UrgencyExpired  Urgency = "EXPIRED"
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyWarning  Urgency = "WARNING"
	UrgencyNormal   Urgency = "NORMAL"
)

// Umbrales en días (inclusive).
const (
	CriticalDays = 7
	WarningDays  = 30
)

const day = 24 * time.Hour

// DaysUntil = ceil((expiration - now) / 1 día). Negativo si ya venció.
func DaysUntil(expiration, now time.Time) int {
	return ceilDays(expiration.Sub(now))
}

// DaysSince = ceil((now - since) / 1 día).
func DaysSince(since, now time.Time) int {
	return ceilDays(now.Sub(since))
}

// ceilDays redondea hacia arriba en aritmética entera; la división de Go trunca hacia cero.
func ceilDays(d time.Duration) int {
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

// UrgencyForDays clasifica una cantidad de días hasta el vencimiento.
func UrgencyForDays(days int) Urgency {
	switch {
	case days <= 0:
		return UrgencyExpired
	case days <= CriticalDays:
		return UrgencyCritical
	case days <= WarningDays:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// Classify es la función pura Urgency(expirationDate, now).
// Sin fecha de vencimiento el lote siempre es NORMAL.
func Classify(expiration *time.Time, now time.Time) Urgency {
	if expiration == nil {
		return UrgencyNormal
	}
	return UrgencyForDays(DaysUntil(*expiration, now))
}

// EffectiveStatus estado del lote calculado al leer.
// DEPLETED y EXPIRED persistidos son terminales; el resto deriva del clasificador.
func EffectiveStatus(b *entity.Batch, now time.Time) entity.BatchStatus {
	if b.Status == entity.BatchStatusDepleted || b.Quantity.IsZero() {
		return entity.BatchStatusDepleted
	}
	if b.Status == entity.BatchStatusExpired {
		return entity.BatchStatusExpired
	}
	switch Classify(b.ExpirationDate, now) {
	case UrgencyExpired:
		return entity.BatchStatusExpired
	case UrgencyCritical, UrgencyWarning:
		return entity.BatchStatusExpiringSoon
	}
	return entity.BatchStatusAvailable
}

// Allocatable indica si el lote puede entrar al conjunto de candidatos de una reserva.
func Allocatable(b *entity.Batch, now time.Time) bool {
	switch EffectiveStatus(b, now) {
	case entity.BatchStatusDepleted, entity.BatchStatusExpired:
		return false
	}
	return b.AvailableQuantity.IsPositive()
}
