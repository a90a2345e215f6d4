package calculator

import (
	"sort"
	"time"

	"rfm-dashboard/pkg/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

type customerAcc struct {
	last      time.Time
	frequency int
	monetary  decimal.Decimal
}

// Aggregate calcule une ligne RFM par client présent dans les commandes filtrées.
//
// Recency = (reference - dernière commande filtrée du client) en jours entiers, tronqués.
// Frequency = nombre de commandes filtrées du client.
// Monetary = somme des prix des lignes de ces commandes ; une commande sans ligne compte 0.
//
// Les lignes sont triées par identifiant client. Aucun contrôle sur les prix négatifs.
func Aggregate(filtered []models.Order, items []models.OrderItem, reference time.Time) []models.CustomerMetric {
	perOrder := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		perOrder[it.OrderID] = perOrder[it.OrderID].Add(it.Price)
	}

	byCustomer := make(map[string]*customerAcc)
	for _, o := range filtered {
		acc, ok := byCustomer[o.CustomerID]
		if !ok {
			acc = &customerAcc{last: o.PurchasedAt}
			byCustomer[o.CustomerID] = acc
		}
		if o.PurchasedAt.After(acc.last) {
			acc.last = o.PurchasedAt
		}
		acc.frequency++
		acc.monetary = acc.monetary.Add(perOrder[o.ID])
	}

	out := make([]models.CustomerMetric, 0, len(byCustomer))
	for id, acc := range byCustomer {
		out = append(out, models.CustomerMetric{
			CustomerID: id,
			Recency:    int(reference.Sub(acc.last) / day),
			Frequency:  acc.frequency,
			Monetary:   acc.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}
