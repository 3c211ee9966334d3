package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureQuotationsIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure quotations indexes: %w", err)
	}
	if err := ensureCompanyQuotesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure company_quotes indexes: %w", err)
	}
	if err := ensureCompaniesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure companies indexes: %w", err)
	}
	return nil
}

func ensureQuotationsIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColQuotations)
	models := []mongo.IndexModel{
		newIndex("seq", 1, "quotations_seq_unique", true),
		newIndex("customer_id", 1, "quotations_customer_id", false),
		newIndex("status", 1, "quotations_status", false),
		newIndex("created_at", 1, "quotations_created_at", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureCompanyQuotesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColCompanyQuotes)
	models := []mongo.IndexModel{
		newIndex("quotation_id", 1, "company_quotes_quotation_id", false),
		newIndex("quote_number", 1, "company_quotes_number_unique", true),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureCompaniesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColCompanies)
	models := []mongo.IndexModel{
		newIndex("code", 1, "companies_code_unique", true),
		newIndex("active", 1, "companies_active", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func newIndex(field string, asc int32, name string, unique bool) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: asc}},
		Options: opts,
	}
}
