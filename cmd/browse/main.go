package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tomasarrieta/shopwindow/internal/browse"
	"github.com/tomasarrieta/shopwindow/internal/catalog"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
)

// stdoutHistory mirrors the browser address bar: every canonical query the
// coordinator writes is echoed so the session can be resumed with the same
// string via the initial-query argument.
type stdoutHistory struct{}

func (stdoutHistory) Replace(query string) {
	fmt.Printf("url: ?%s\n", query)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "browse"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "browse",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := catalog.NewClient(cfg.Catalog, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog client", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := browse.NewCoordinator(browse.CoordinatorParams{
		Client:  client,
		Logger:  logg,
		History: stdoutHistory{},
		Defaults: browse.Defaults{
			PerPage:      cfg.Browse.DefaultPerPage,
			PriceCeiling: cfg.Browse.PriceCeiling,
			PriceStep:    cfg.Browse.PriceStep,
		},
		Debounce:     cfg.Browse.Debounce,
		FetchTimeout: cfg.Catalog.Timeout,
		OnUpdate:     render,
	})

	initialQuery := ""
	if len(os.Args) > 1 {
		initialQuery = os.Args[1]
	}
	coordinator.Start(ctx, initialQuery)
	defer coordinator.Stop()

	fmt.Println("commands: cat <slug> | price <min> <max> | sale on|off | sort <order> | page <n> | retry | url | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "cat":
			if len(fields) == 2 {
				coordinator.ToggleCategory(fields[1])
			}
		case "price":
			if len(fields) == 3 {
				min, minErr := strconv.Atoi(fields[1])
				max, maxErr := strconv.Atoi(fields[2])
				if minErr == nil && maxErr == nil {
					coordinator.SetPriceRange(min, max)
				}
			}
		case "sale":
			if len(fields) == 2 {
				coordinator.SetOnSale(fields[1] == "on")
			}
		case "sort":
			if len(fields) == 2 {
				coordinator.SetSortBy(browse.ParseSortOrder(fields[1]))
			}
		case "page":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					coordinator.SetPage(n)
				}
			}
		case "retry":
			coordinator.Retry()
		case "url":
			fmt.Printf("url: ?%s\n", coordinator.CanonicalQuery())
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func render(view browse.View) {
	if view.Loading {
		fmt.Println("loading...")
		return
	}
	if view.Err.Status {
		fmt.Printf("error: %s\n", view.Err.Message)
	}
	if view.CategoriesErr.Status {
		fmt.Printf("categories error: %s\n", view.CategoriesErr.Message)
	}
	if view.Results == nil {
		return
	}
	fmt.Printf("page %d/%d (%d products)\n", view.Results.Source.Page, view.Results.TotalPages, view.Results.TotalItems)
	for _, product := range view.Results.Items {
		price := product.Price.StringFixed(2)
		if product.OnSale && product.SalePrice != nil {
			price = product.SalePrice.StringFixed(2) + " (was " + price + ")"
		}
		fmt.Printf("  %-40s %s\n", product.Name, price)
	}
}
