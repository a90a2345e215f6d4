package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rfm-dashboard/pkg/calculator"
	"rfm-dashboard/pkg/config"
	"rfm-dashboard/pkg/database"
	"rfm-dashboard/pkg/logger"
	"rfm-dashboard/pkg/models"
	"rfm-dashboard/pkg/report"
	"rfm-dashboard/pkg/server"
	"rfm-dashboard/pkg/source"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("RFM_CONFIG"), "Fichier de configuration YAML (optionnel)")
	sourceKind := flag.String("source", "", "Source des données: csv ou sql")
	dsn := flag.String("dsn", "", "DSN (mysql://, mariadb://, postgres://, sqlite://)")
	customers := flag.String("customers", "", "CSV clients (chemin ou URL)")
	orders := flag.String("orders", "", "CSV commandes (chemin ou URL)")
	items := flag.String("items", "", "CSV lignes de commande (chemin ou URL)")
	start := flag.String("start", "", "Début de fenêtre (YYYY-MM-DD)")
	end := flag.String("end", "", "Fin de fenêtre (YYYY-MM-DD)")
	segment := flag.String("segment", models.AllSegments, "Segment: All, Low, Medium, High, Very High")
	top := flag.Int("top", 0, "Taille des classements villes/états")
	output := flag.String("output", "", "Dossier d'export JSON + CSV (optionnel)")
	serve := flag.String("serve", "", "Adresse d'écoute HTTP (ex: :8080) ; active le mode serveur")
	verbose := flag.Bool("v", false, "Mode verbeux")
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// les flags explicites l'emportent sur la configuration
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *sourceKind
		case "dsn":
			cfg.DSN = *dsn
		case "customers":
			cfg.CustomersURL = *customers
		case "orders":
			cfg.OrdersURL = *orders
		case "items":
			cfg.ItemsURL = *items
		case "top":
			cfg.TopN = *top
		case "serve":
			cfg.ListenAddr = *serve
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, *verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	window, err := calculator.ParseWindow(*start, *end)
	if err != nil {
		lg.Fatalf("window: %v", err)
	}

	src, closeSrc, err := openSource(cfg, lg)
	if err != nil {
		lg.Fatalf("source: %v", err)
	}
	defer closeSrc()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := models.Config{
		Window:        window,
		Segment:       *segment,
		TopN:          cfg.TopN,
		HistogramBins: cfg.HistogramBins,
		Progress:      *serve == "" && *verbose,
		Verbose:       *verbose,
	}

	if *serve != "" {
		if err := server.New(src, run, lg).Run(ctx, cfg.ListenAddr); err != nil {
			lg.Fatalf("serve: %v", err)
		}
		return
	}

	r, err := calculator.Run(ctx, src, run, lg)
	if err != nil {
		lg.Fatalf("compute: %v", err)
	}
	if err := report.WriteText(os.Stdout, r); err != nil {
		lg.Fatalf("print: %v", err)
	}

	if *output != "" {
		jsonPath := report.TimestampedFilename(*output, "rfm", "json")
		if err := report.ExportJSON(jsonPath, r); err != nil {
			lg.Fatalf("export: %v", err)
		}
		csvPath := strings.TrimSuffix(jsonPath, ".json") + ".csv"
		if err := report.ExportCSV(csvPath, r.Metrics); err != nil {
			lg.Fatalf("export: %v", err)
		}
		lg.Infow("report exported", "json", jsonPath, "csv", csvPath)
	}
}

// openSource construit la source mémorisée ; le close libère la connexion SQL éventuelle.
func openSource(cfg *config.Config, lg *zap.SugaredLogger) (source.Source, func(), error) {
	switch cfg.Source {
	case "sql":
		db, driver, err := database.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		lg.Infow("connected", "driver", driver)
		src, err := database.NewSource(db, database.DefaultTables(), lg)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return source.NewCached(src), func() { db.Close() }, nil
	case "csv":
		src := source.NewCSV(cfg.CustomersURL, cfg.OrdersURL, cfg.ItemsURL, cfg.HTTPTimeout, lg)
		return source.NewCached(src), func() {}, nil
	}
	return nil, nil, fmt.Errorf("source inconnue %q", cfg.Source)
}
