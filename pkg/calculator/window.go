package calculator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rfm-dashboard/pkg/models"
)

// defaultWindowDays : taille de la fenêtre quand aucune plage n'est choisie.
const defaultWindowDays = 365

var (
	ErrNoOrders      = errors.New("aucune commande dans les données")
	ErrInvalidWindow = errors.New("fenêtre de dates invalide")
)

// ReferenceTime renvoie le dernier horodatage d'achat sur l'ensemble NON filtré.
// C'est le "maintenant" de la Recency, quelle que soit la fenêtre choisie.
func ReferenceTime(orders []models.Order) (time.Time, error) {
	if len(orders) == 0 {
		return time.Time{}, ErrNoOrders
	}
	latest := orders[0].PurchasedAt
	for _, o := range orders[1:] {
		if o.PurchasedAt.After(latest) {
			latest = o.PurchasedAt
		}
	}
	return latest, nil
}

// DefaultWindow = les 365 jours qui finissent au jour de la dernière commande.
func DefaultWindow(orders []models.Order) (models.Window, error) {
	latest, err := ReferenceTime(orders)
	if err != nil {
		return models.Window{}, err
	}
	end := dayOf(latest)
	return models.Window{Start: end.AddDate(0, 0, -defaultWindowDays), End: end}, nil
}

// FilterOrders garde les commandes dont le jour d'achat est dans [Start ; End].
// Start > End donne un résultat vide, sans erreur. La tranche d'entrée n'est pas modifiée.
func FilterOrders(orders []models.Order, w models.Window) []models.Order {
	start, end := dayOf(w.Start), dayOf(w.End)
	out := make([]models.Order, 0)
	if start.After(end) {
		return out
	}
	for _, o := range orders {
		d := dayOf(o.PurchasedAt)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ParseWindow lit deux bornes "YYYY-MM-DD". Deux bornes vides → fenêtre nulle (défaut).
func ParseWindow(start, end string) (models.Window, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return models.Window{}, nil
	}
	if start == "" || end == "" {
		return models.Window{}, fmt.Errorf("%w: les deux bornes sont requises", ErrInvalidWindow)
	}
	s, err := parseDay(start)
	if err != nil {
		return models.Window{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
	}
	e, err := parseDay(end)
	if err != nil {
		return models.Window{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
	}
	return models.Window{Start: s, End: e}, nil
}

// dayOf tronque au jour calendaire (dans le fuseau de t), exprimé en UTC pour comparer.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDay("YYYY-MM-DD") -> minuit UTC
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(models.DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("format attendu YYYY-MM-DD (ex: 2018-08-29)")
	}
	return t, nil
}

func formatDay(t time.Time) string {
	return t.Format(models.DayLayout)
}
