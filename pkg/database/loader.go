package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"rfm-dashboard/pkg/logger"
	"rfm-dashboard/pkg/models"
	"rfm-dashboard/pkg/source"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Tables nomme les trois tables lues.
type Tables struct {
	Customers string
	Orders    string
	Items     string
}

func DefaultTables() Tables {
	return Tables{Customers: "customers", Orders: "orders", Items: "order_items"}
}

// Open DSN mariadb://, mysql://, postgres://, sqlite:// ou file: → (db, driver)
func Open(dsn string) (*sql.DB, string, error) {
	driver, native, err := resolve(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, native)
	if err != nil {
		return nil, "", err
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, driver, nil
}

// resolve choisit le driver selon le schéma du DSN. Un DSN MySQL natif passe tel quel.
func resolve(dsn string) (driver, native string, err error) {
	switch {
	case strings.HasPrefix(dsn, "mariadb://"), strings.HasPrefix(dsn, "mysql://"):
		native, err = toMySQLDSN(dsn)
		return "mysql", native, err
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("dsn sqlite sans chemin")
		}
		return "sqlite3", path, nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite3", dsn, nil
	case dsn == "":
		return "", "", fmt.Errorf("dsn vide")
	}
	return "mysql", dsn, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Source lit les trois tables par des SELECT simples.
type Source struct {
	db     *sql.DB
	tables Tables
	log    *zap.SugaredLogger
}

func NewSource(db *sql.DB, tables Tables, log *zap.SugaredLogger) (*Source, error) {
	for _, name := range []string{tables.Customers, tables.Orders, tables.Items} {
		if !tableNameRe.MatchString(name) {
			return nil, fmt.Errorf("table invalide: %q", name)
		}
	}
	return &Source{db: db, tables: tables, log: logger.OrNop(log)}, nil
}

func (s *Source) Fetch(ctx context.Context) (*models.Dataset, error) {
	customers, err := s.customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.tables.Customers, err)
	}
	orders, err := s.orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.tables.Orders, err)
	}
	items, err := s.items(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.tables.Items, err)
	}
	s.log.Debugw("sql dataset loaded", "customers", len(customers), "orders", len(orders), "items", len(items))
	return &models.Dataset{Customers: customers, Orders: orders, Items: items}, nil
}

func (s *Source) customers(ctx context.Context) ([]models.Customer, error) {
	q := fmt.Sprintf(`SELECT customer_id, customer_city, customer_state FROM %s`, s.tables.Customers)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var (
			id          string
			city, state sql.NullString
		)
		if err := rows.Scan(&id, &city, &state); err != nil {
			return nil, err
		}
		out = append(out, models.Customer{ID: id, City: city.String, State: state.String})
	}
	return out, rows.Err()
}

func (s *Source) orders(ctx context.Context) ([]models.Order, error) {
	q := fmt.Sprintf(`SELECT order_id, customer_id, order_purchase_timestamp FROM %s`, s.tables.Orders)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for row := 1; rows.Next(); row++ {
		var (
			id, customerID string
			raw            any
		)
		if err := rows.Scan(&id, &customerID, &raw); err != nil {
			return nil, err
		}
		ts, err := toTime(raw)
		if err != nil {
			return nil, &source.SchemaError{Table: s.tables.Orders, Column: "order_purchase_timestamp", Row: row, Err: err}
		}
		out = append(out, models.Order{ID: id, CustomerID: customerID, PurchasedAt: ts})
	}
	return out, rows.Err()
}

func (s *Source) items(ctx context.Context) ([]models.OrderItem, error) {
	q := fmt.Sprintf(`SELECT order_id, price FROM %s`, s.tables.Items)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OrderItem
	for row := 1; rows.Next(); row++ {
		var (
			orderID string
			price   decimal.NullDecimal
		)
		if err := rows.Scan(&orderID, &price); err != nil {
			return nil, &source.SchemaError{Table: s.tables.Items, Column: "price", Row: row, Err: err}
		}
		if !price.Valid {
			return nil, &source.SchemaError{Table: s.tables.Items, Column: "price", Row: row, Err: fmt.Errorf("prix NULL")}
		}
		out = append(out, models.OrderItem{OrderID: orderID, Price: price.Decimal})
	}
	return out, rows.Err()
}

// toTime convertit la valeur brute d'une colonne horodatage selon le driver.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return source.ParseTimestamp(t)
	case []byte:
		return source.ParseTimestamp(string(t))
	case nil:
		return time.Time{}, fmt.Errorf("horodatage NULL")
	}
	return time.Time{}, fmt.Errorf("type d'horodatage non géré %T", v)
}
