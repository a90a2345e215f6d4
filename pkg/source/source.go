// Package source fournit les trois tables brutes au calcul RFM.
package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rfm-dashboard/pkg/models"
)

// Source renvoie un instantané des tables clients, commandes et lignes de commande.
// Deux appels successifs doivent renvoyer les mêmes données, sans effet de bord.
type Source interface {
	Fetch(ctx context.Context) (*models.Dataset, error)
}

// SchemaError signale une entrée mal formée : colonne absente, valeur illisible.
type SchemaError struct {
	Table  string
	Column string
	Row    int // 0 = en-tête
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: colonne %q: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("%s ligne %d: colonne %q: %v", e.Table, e.Row, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// ParseTimestamp accepte "2006-01-02 15:04:05", RFC 3339 et "2006-01-02" (UTC si sans fuseau).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("horodatage illisible %q", s)
}

// Cached mémorise le premier chargement réussi. Un échec n'est jamais mémorisé.
type Cached struct {
	src Source
	mu  sync.Mutex
	ds  *models.Dataset
}

func NewCached(src Source) *Cached {
	return &Cached{src: src}
}

func (c *Cached) Fetch(ctx context.Context) (*models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ds != nil {
		return c.ds, nil
	}
	ds, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.ds = ds
	return ds, nil
}

// Invalidate force un rechargement au prochain Fetch.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.ds = nil
	c.mu.Unlock()
}
