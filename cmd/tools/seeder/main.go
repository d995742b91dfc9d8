package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/db"
)

// Seeds a development database with a small catalog of building materials,
// a handful of customers and the delivery rate table. Safe to re-run: every
// insert is an upsert keyed on the natural identifier.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := db.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dbURL, "pedidos-seeder")
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	seedProducts(ctx, pool)
	seedCustomers(ctx, pool)
	seedFreightRates(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	type product struct {
		ID             string
		Name           string
		SKU            string
		ListPrice      decimal.Decimal
		MVA            *decimal.Decimal
		UnitsPerVolume decimal.Decimal
		IPIExempt      bool
		WeightKg       decimal.Decimal
		VolumeM3       decimal.Decimal
	}
	mva45 := dec("45")
	mva52 := dec("52.5")
	products := []product{
		{"11111111-1111-4111-8111-111111111111", "Cimento CP-II 50kg", "CIM-CP2-50", dec("32.90"), nil, dec("1"), true, dec("50"), dec("0.033")},
		{"22222222-2222-4222-8222-222222222222", "Argamassa AC-III 20kg", "ARG-AC3-20", dec("28.50"), &mva45, dec("1"), false, dec("20"), dec("0.014")},
		{"33333333-3333-4333-8333-333333333333", "Piso cerâmico 60x60", "PIS-CER-6060", dec("54.90"), &mva52, dec("2.5"), false, dec("18.4"), dec("0.021")},
		{"44444444-4444-4444-8444-444444444444", "Tinta acrílica 18L", "TIN-ACR-18", dec("289.00"), nil, dec("1"), false, dec("24"), dec("0.020")},
		{"55555555-5555-4555-8555-555555555555", "Tijolo cerâmico 9 furos (milheiro)", "TIJ-9F-1000", dec("890.00"), nil, dec("1000"), true, dec("2300"), dec("1.9")},
		{"66666666-6666-4666-8666-666666666666", "Vergalhão CA-50 10mm 12m", "VER-CA50-10", dec("46.80"), &mva45, dec("1"), false, dec("7.4"), dec("0.001")},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, sku, list_price, mva, units_per_volume, ipi_exempt, weight_kg, volume_m3, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
			ON CONFLICT (sku) DO UPDATE SET
				name = EXCLUDED.name,
				list_price = EXCLUDED.list_price,
				mva = EXCLUDED.mva,
				units_per_volume = EXCLUDED.units_per_volume,
				ipi_exempt = EXCLUDED.ipi_exempt,
				weight_kg = EXCLUDED.weight_kg,
				volume_m3 = EXCLUDED.volume_m3,
				active = true
		`, p.ID, p.Name, p.SKU, p.ListPrice, p.MVA, p.UnitsPerVolume, p.IPIExempt, p.WeightKg, p.VolumeM3)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.SKU, err)
		}
	}
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) {
	type customer struct {
		ID              string
		Name            string
		Document        string
		City            string
		Region          string
		DefaultDiscount decimal.Decimal
		PaymentTerms    string
	}
	customers := []customer{
		{"aaaaaaaa-1111-4111-8111-aaaaaaaaaaaa", "Construtora Horizonte Ltda", "12.345.678/0001-90", "Campinas", "interior-sp", dec("10"), "28dd"},
		{"bbbbbbbb-2222-4222-8222-bbbbbbbbbbbb", "Depósito São José", "98.765.432/0001-10", "São Paulo", "capital-sp", dec("5"), "14dd"},
		{"cccccccc-3333-4333-8333-cccccccccccc", "Reformas Almeida ME", "45.678.912/0001-34", "Sorocaba", "interior-sp", dec("0"), ""},
		{"dddddddd-4444-4444-8444-dddddddddddd", "Engenharia Costa e Silva", "11.222.333/0001-44", "Ribeirão Preto", "interior-sp", dec("12.5"), "28/42dd"},
	}

	log.Println("Seeding customers...")
	for _, c := range customers {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (id, name, document, city, region, default_discount, payment_terms, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true)
			ON CONFLICT (document) DO UPDATE SET
				name = EXCLUDED.name,
				city = EXCLUDED.city,
				region = EXCLUDED.region,
				default_discount = EXCLUDED.default_discount,
				payment_terms = EXCLUDED.payment_terms,
				active = true
		`, c.ID, c.Name, c.Document, c.City, c.Region, c.DefaultDiscount, c.PaymentTerms)
		if err != nil {
			log.Fatalf("Failed to seed customer %s: %v", c.Name, err)
		}
	}
}

func seedFreightRates(ctx context.Context, pool *pgxpool.Pool) {
	type rate struct {
		Region  string
		Carrier string
		BaseFee decimal.Decimal
		PerKg   decimal.Decimal
		PerM3   decimal.Decimal
	}
	rates := []rate{
		{"capital-sp", "Transportadora Bandeirante", dec("80"), dec("0.12"), dec("35")},
		{"interior-sp", "Transportadora Bandeirante", dec("120"), dec("0.18"), dec("48")},
		{"sul-mg", "Rodomar Cargas", dec("160"), dec("0.22"), dec("55")},
		{"litoral-sp", "Rodomar Cargas", dec("140"), dec("0.20"), dec("50")},
	}

	log.Println("Seeding freight rates...")
	for _, r := range rates {
		_, err := pool.Exec(ctx, `
			INSERT INTO freight_rates (region, carrier, base_fee, per_kg, per_m3, active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (region) DO UPDATE SET
				carrier = EXCLUDED.carrier,
				base_fee = EXCLUDED.base_fee,
				per_kg = EXCLUDED.per_kg,
				per_m3 = EXCLUDED.per_m3,
				active = true
		`, r.Region, r.Carrier, r.BaseFee, r.PerKg, r.PerM3)
		if err != nil {
			log.Fatalf("Failed to seed freight rate %s: %v", r.Region, err)
		}
	}
}
