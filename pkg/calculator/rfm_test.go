package calculator

import (
	"testing"

	"rfm-dashboard/pkg/models"

	"github.com/shopspring/decimal"
)

func item(orderID, price string) models.OrderItem {
	return models.OrderItem{OrderID: orderID, Price: decimal.RequireFromString(price)}
}

func TestAggregate_Scenario(t *testing.T) {
	// C1 : commandes jour 1 (10) et jour 5 (20), fenêtre jusqu'au jour 10, dernière commande globale jour 12
	all := []models.Order{
		order("o1", "C1", at(2018, 1, 1, 8)),
		order("o2", "C1", at(2018, 1, 5, 8)),
		order("o3", "C2", at(2018, 1, 12, 8)),
	}
	items := []models.OrderItem{item("o1", "10"), item("o2", "20"), item("o3", "99")}

	reference, err := ReferenceTime(all)
	if err != nil {
		t.Fatal(err)
	}
	filtered := FilterOrders(all, models.Window{Start: at(2018, 1, 1, 0), End: at(2018, 1, 10, 0)})
	got := Aggregate(filtered, items, reference)

	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(got), got)
	}
	m := got[0]
	if m.CustomerID != "C1" || m.Recency != 7 || m.Frequency != 2 || !m.Monetary.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("got %+v, want C1 R=7 F=2 M=30", m)
	}
}

func TestAggregate_RecencyTruncatesAndIgnoresWindow(t *testing.T) {
	reference := at(2018, 1, 12, 6)
	filtered := []models.Order{order("o1", "c1", at(2018, 1, 5, 8))} // 6 jours 22 h
	got := Aggregate(filtered, nil, reference)
	if got[0].Recency != 6 {
		t.Fatalf("got recency %d, want 6", got[0].Recency)
	}
}

func TestAggregate_OrderWithoutItemsIsZero(t *testing.T) {
	filtered := []models.Order{
		order("o1", "c1", at(2018, 1, 5, 8)),
		order("o2", "c2", at(2018, 1, 6, 8)),
	}
	items := []models.OrderItem{item("o2", "5.50"), item("o2", "4.50"), item("unknown", "100")}
	got := Aggregate(filtered, items, at(2018, 1, 10, 0))
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !got[0].Monetary.IsZero() {
		t.Fatalf("c1 monetary = %s, want 0", got[0].Monetary)
	}
	if !got[1].Monetary.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("c2 monetary = %s, want 10", got[1].Monetary)
	}
}

func TestAggregate_ExactDecimalSums(t *testing.T) {
	filtered := []models.Order{order("o1", "c1", at(2018, 1, 5, 8))}
	items := []models.OrderItem{item("o1", "0.1"), item("o1", "0.2")}
	got := Aggregate(filtered, items, at(2018, 1, 5, 8))
	if !got[0].Monetary.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("got %s, want 0.3", got[0].Monetary)
	}
}

func TestAggregate_SortedAndEmpty(t *testing.T) {
	if got := Aggregate(nil, nil, at(2018, 1, 1, 0)); len(got) != 0 {
		t.Fatalf("got %d rows, want 0", len(got))
	}
	filtered := []models.Order{
		order("o1", "zeta", at(2018, 1, 5, 8)),
		order("o2", "alpha", at(2018, 1, 5, 8)),
		order("o3", "mid", at(2018, 1, 5, 8)),
	}
	got := Aggregate(filtered, nil, at(2018, 1, 6, 0))
	if got[0].CustomerID != "alpha" || got[1].CustomerID != "mid" || got[2].CustomerID != "zeta" {
		t.Fatalf("rows not sorted: %+v", got)
	}
}
