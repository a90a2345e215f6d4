package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"rfm-dashboard/pkg/logger"
	"rfm-dashboard/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Jeu de données public utilisé par défaut.
const (
	DefaultCustomersURL = "https://raw.githubusercontent.com/acah21/dataset/refs/heads/main/customers_dataset.csv"
	DefaultOrdersURL    = "https://raw.githubusercontent.com/acah21/dataset/refs/heads/main/orders_dataset.csv"
	DefaultItemsURL     = "https://raw.githubusercontent.com/acah21/dataset/refs/heads/main/order_items_dataset.csv"
)

// CSV lit les trois tables depuis des fichiers locaux ou des URL http(s).
type CSV struct {
	Customers string
	Orders    string
	Items     string
	Client    *http.Client
	Log       *zap.SugaredLogger
}

// NewCSV crée une source CSV ; un emplacement vide prend l'URL publique par défaut.
func NewCSV(customers, orders, items string, timeout time.Duration, log *zap.SugaredLogger) *CSV {
	if customers == "" {
		customers = DefaultCustomersURL
	}
	if orders == "" {
		orders = DefaultOrdersURL
	}
	if items == "" {
		items = DefaultItemsURL
	}
	return &CSV{
		Customers: customers,
		Orders:    orders,
		Items:     items,
		Client:    &http.Client{Timeout: timeout},
		Log:       logger.OrNop(log),
	}
}

func (c *CSV) Fetch(ctx context.Context) (*models.Dataset, error) {
	var ds models.Dataset
	err := c.read(ctx, c.Customers, func(r io.Reader) (err error) {
		ds.Customers, err = ReadCustomers(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = c.read(ctx, c.Orders, func(r io.Reader) (err error) {
		ds.Orders, err = ReadOrders(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = c.read(ctx, c.Items, func(r io.Reader) (err error) {
		ds.Items, err = ReadOrderItems(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.Log.Debugw("csv dataset loaded",
		"customers", len(ds.Customers), "orders", len(ds.Orders), "items", len(ds.Items))
	return &ds, nil
}

func (c *CSV) read(ctx context.Context, location string, fn func(io.Reader) error) error {
	rc, err := c.open(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(rc)
}

func (c *CSV) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	c.Log.Debugw("downloading csv", "url", location)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", location, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: %s", location, resp.Status)
	}
	return resp.Body, nil
}

// table parcourt un CSV à en-tête et appelle fn avec l'index des colonnes requises.
func table(r io.Reader, name string, required []string, fn func(row int, get func(col string) string) error) error {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &SchemaError{Table: name, Column: required[0], Err: errors.New("fichier vide")}
	}
	if err != nil {
		return fmt.Errorf("%s: read header: %w", name, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return &SchemaError{Table: name, Column: col, Err: errors.New("colonne absente")}
		}
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s ligne %d: %w", name, row, err)
		}
		get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }
		if err := fn(row, get); err != nil {
			return err
		}
	}
}

func ReadCustomers(r io.Reader) ([]models.Customer, error) {
	var out []models.Customer
	err := table(r, "customers", []string{"customer_id", "customer_city", "customer_state"}, func(_ int, get func(string) string) error {
		out = append(out, models.Customer{
			ID:    get("customer_id"),
			City:  get("customer_city"),
			State: get("customer_state"),
		})
		return nil
	})
	return out, err
}

func ReadOrders(r io.Reader) ([]models.Order, error) {
	var out []models.Order
	err := table(r, "orders", []string{"order_id", "customer_id", "order_purchase_timestamp"}, func(row int, get func(string) string) error {
		ts, err := ParseTimestamp(get("order_purchase_timestamp"))
		if err != nil {
			return &SchemaError{Table: "orders", Column: "order_purchase_timestamp", Row: row, Err: err}
		}
		out = append(out, models.Order{
			ID:          get("order_id"),
			CustomerID:  get("customer_id"),
			PurchasedAt: ts,
		})
		return nil
	})
	return out, err
}

func ReadOrderItems(r io.Reader) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := table(r, "order_items", []string{"order_id", "price"}, func(row int, get func(string) string) error {
		price, err := decimal.NewFromString(get("price"))
		if err != nil {
			return &SchemaError{Table: "order_items", Column: "price", Row: row, Err: err}
		}
		out = append(out, models.OrderItem{OrderID: get("order_id"), Price: price})
		return nil
	})
	return out, err
}
