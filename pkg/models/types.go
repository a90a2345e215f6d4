package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → types simples pour les trois tables brutes (clients, commandes, lignes).
*/

// Customer représente un client tel qu'il est lu depuis la source (données de référence, jamais modifiées).
type Customer struct {
	ID    string `json:"customer_id"`
	City  string `json:"customer_city"`
	State string `json:"customer_state"`
}

// Order représente une commande et son horodatage d'achat.
type Order struct {
	ID          string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	PurchasedAt time.Time `json:"order_purchase_timestamp"`
}

// OrderItem représente une ligne de commande.
type OrderItem struct {
	OrderID string          `json:"order_id"`
	Price   decimal.Decimal `json:"price"`
}

// Dataset regroupe un instantané des trois tables.
type Dataset struct {
	Customers []Customer
	Orders    []Order
	Items     []OrderItem
}

/*
WINDOW → fenêtre de dates inclusive, granularité jour.
*/

// Window est l'intervalle [Start ; End], bornes incluses, comparé au jour près.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

const DayLayout = "2006-01-02"

func (w Window) String() string {
	return fmt.Sprintf("[%s ; %s]", w.Start.Format(DayLayout), w.End.Format(DayLayout))
}

// IsZero vaut true quand aucune fenêtre n'a été choisie.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

/*
SEGMENT → quartiles de Monetary, ordonnés.
*/

type Segment int

const (
	SegmentLow Segment = iota + 1
	SegmentMedium
	SegmentHigh
	SegmentVeryHigh
)

// AllSegments est le sélecteur qui désactive le filtre de segment.
const AllSegments = "All"

// Segments liste les quatre labels dans l'ordre croissant.
var Segments = []Segment{SegmentLow, SegmentMedium, SegmentHigh, SegmentVeryHigh}

func (s Segment) String() string {
	switch s {
	case SegmentLow:
		return "Low"
	case SegmentMedium:
		return "Medium"
	case SegmentHigh:
		return "High"
	case SegmentVeryHigh:
		return "Very High"
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// ParseSegment accepte un label (casse et espaces ignorés). ok=false si inconnu.
func ParseSegment(label string) (Segment, bool) {
	l := strings.TrimSpace(label)
	for _, s := range Segments {
		if strings.EqualFold(l, s.String()) {
			return s, true
		}
	}
	return 0, false
}

func (s Segment) MarshalText() ([]byte, error) {
	if s < SegmentLow || s > SegmentVeryHigh {
		return nil, fmt.Errorf("segment invalide: %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Segment) UnmarshalText(b []byte) error {
	v, ok := ParseSegment(string(b))
	if !ok {
		return fmt.Errorf("segment inconnu: %q", string(b))
	}
	*s = v
	return nil
}

/*
COMPUTE → une ligne par client ayant au moins une commande dans la fenêtre.
*/

// CustomerMetric contient les mesures RFM d'un client.
type CustomerMetric struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`   // jours entiers depuis la dernière commande (référence globale)
	Frequency  int             `json:"frequency"` // nombre de commandes dans la fenêtre
	Monetary   decimal.Decimal `json:"monetary"`  // somme des prix des lignes
	Segment    Segment         `json:"monetary_segment"`
}

// ValueCount est une ligne d'un comptage de valeurs (villes, états).
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Stat résume une colonne numérique.
type Stat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary résume les trois colonnes R, F, M.
type Summary struct {
	Count     int  `json:"count"`
	Recency   Stat `json:"recency"`
	Frequency Stat `json:"frequency"`
	Monetary  Stat `json:"monetary"`
}

// NullFloat sérialise NaN en null.
type NullFloat float64

func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%.6f", v)), nil
}

// CorrMatrix est une matrice de Pearson symétrique.
type CorrMatrix struct {
	Columns []string      `json:"columns"`
	Values  [][]NullFloat `json:"values"`
}

// Histogram décrit des classes de largeur égale.
type Histogram struct {
	Edges  []float64 `json:"edges"`  // len(Counts)+1 bornes
	Counts []int     `json:"counts"` // effectifs par classe
}

// Report est la sortie complète d'une exécution, consommée par la couche de présentation.
type Report struct {
	RunID        string               `json:"run_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Window       Window               `json:"window"`
	Reference    time.Time            `json:"reference"`
	Selected     string               `json:"selected_segment"`
	Cutpoints    []decimal.Decimal    `json:"cutpoints"`
	SegmentSizes map[string]int       `json:"segment_sizes"`
	Metrics      []CustomerMetric     `json:"metrics"`
	Summary      Summary              `json:"summary"`
	Correlation  CorrMatrix           `json:"correlation"`
	Histograms   map[string]Histogram `json:"histograms"`
	TopCities    []ValueCount         `json:"top_cities"`
	TopStates    []ValueCount         `json:"top_states"`
}

/*
CONFIG → paramètres d'une exécution
*/

// Config contient les paramètres passés à la fonction de calcul.
type Config struct {
	Window        Window // zéro → 365 jours finissant à la dernière commande
	Segment       string // label ou "All"
	TopN          int    // taille des classements villes/états
	HistogramBins int
	Progress      bool // barre de progression sur les étapes
	Verbose       bool // logs détaillés
}
