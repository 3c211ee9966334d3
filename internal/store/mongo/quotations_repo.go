package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brokercore/motorquote/internal/core"
)

type QuotationRepoMongo struct {
	client     *mongodrv.Client
	quotations *mongodrv.Collection
	quotes     *mongodrv.Collection
	counters   *mongodrv.Collection
	opTimeout  time.Duration
}

func NewQuotationRepo(c *Client, opTimeout time.Duration) *QuotationRepoMongo {
	return &QuotationRepoMongo{
		client:     c.Client,
		quotations: c.DB.Collection(ColQuotations),
		quotes:     c.DB.Collection(ColCompanyQuotes),
		counters:   c.DB.Collection(ColCounters),
		opTimeout:  opTimeout,
	}
}

// withTx runs fn inside a session transaction spanning the quotation and
// company-quote collections. Any error aborts the whole transaction.
func (repo *QuotationRepoMongo) withTx(ctx context.Context, fn func(sc mongodrv.SessionContext) error) error {
	session, err := repo.client.StartSession()
	if err != nil {
		return fmt.Errorf("quotations.startSession: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongodrv.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (repo *QuotationRepoMongo) Create(ctx context.Context, q core.Quotation) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.withTx(ctx, func(sc mongodrv.SessionContext) error {
		if _, err := repo.quotations.InsertOne(sc, toQuotationDoc(q)); err != nil {
			return mapWriteErr("quotations.insert", err)
		}
		if len(q.Quotes) == 0 {
			return nil
		}
		docs := make([]interface{}, len(q.Quotes))
		for i, cq := range q.Quotes {
			docs[i] = toCompanyQuoteDoc(cq)
		}
		if _, err := repo.quotes.InsertMany(sc, docs); err != nil {
			return mapWriteErr("company_quotes.insert", err)
		}
		return nil
	})
}

func (repo *QuotationRepoMongo) Get(ctx context.Context, id string) (core.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc QuotationDoc
	err := repo.quotations.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Quotation{}, core.ErrQuotationNotFound
		}
		return core.Quotation{}, fmt.Errorf("quotations.findOne: %w", err)
	}

	q := fromQuotationDoc(doc)
	q.Quotes, err = repo.findQuotes(ctx, id)
	if err != nil {
		return core.Quotation{}, err
	}
	return q, nil
}

func (repo *QuotationRepoMongo) findQuotes(ctx context.Context, quotationID string) ([]core.CompanyQuote, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "ranking", Value: 1},
		{Key: "created_at", Value: 1},
	})
	cur, err := repo.quotes.Find(ctx, bson.M{"quotation_id": quotationID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("company_quotes.find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []CompanyQuoteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("company_quotes.decode: %w", err)
	}

	quotes := make([]core.CompanyQuote, len(docs))
	for i, d := range docs {
		quotes[i] = fromCompanyQuoteDoc(d)
	}
	return quotes, nil
}

func (repo *QuotationRepoMongo) List(ctx context.Context, filter core.QuotationFilter, limit, offset int) ([]core.Quotation, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	total, err := repo.quotations.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("quotations.count: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := repo.quotations.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("quotations.find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []QuotationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("quotations.decode: %w", err)
	}

	out := make([]core.Quotation, len(docs))
	for i, d := range docs {
		out[i] = fromQuotationDoc(d)
	}
	return out, total, nil
}

func (repo *QuotationRepoMongo) Update(ctx context.Context, q core.Quotation) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.withTx(ctx, func(sc mongodrv.SessionContext) error {
		res, err := repo.quotations.ReplaceOne(sc, bson.M{"_id": q.ID}, toQuotationDoc(q))
		if err != nil {
			return mapWriteErr("quotations.replace", err)
		}
		if res.MatchedCount == 0 {
			return core.ErrQuotationNotFound
		}
		return repo.replaceQuotesTx(sc, q.ID, q.Quotes)
	})
}

func (repo *QuotationRepoMongo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.withTx(ctx, func(sc mongodrv.SessionContext) error {
		res, err := repo.quotations.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("quotations.delete: %w", err)
		}
		if res.DeletedCount == 0 {
			return core.ErrQuotationNotFound
		}
		if _, err := repo.quotes.DeleteMany(sc, bson.M{"quotation_id": id}); err != nil {
			return fmt.Errorf("company_quotes.delete: %w", err)
		}
		return nil
	})
}

func (repo *QuotationRepoMongo) ReplaceQuotes(ctx context.Context, quotationID string, quotes []core.CompanyQuote) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.withTx(ctx, func(sc mongodrv.SessionContext) error {
		return repo.replaceQuotesTx(sc, quotationID, quotes)
	})
}

func (repo *QuotationRepoMongo) replaceQuotesTx(sc mongodrv.SessionContext, quotationID string, quotes []core.CompanyQuote) error {
	if _, err := repo.quotes.DeleteMany(sc, bson.M{"quotation_id": quotationID}); err != nil {
		return fmt.Errorf("company_quotes.delete: %w", err)
	}
	if len(quotes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(quotes))
	for i, cq := range quotes {
		docs[i] = toCompanyQuoteDoc(cq)
	}
	if _, err := repo.quotes.InsertMany(sc, docs); err != nil {
		return mapWriteErr("company_quotes.insert", err)
	}
	return nil
}

func (repo *QuotationRepoMongo) UpdateQuoteRanking(ctx context.Context, quotationID string, quotes []core.CompanyQuote) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	if len(quotes) == 0 {
		return nil
	}

	models := make([]mongodrv.WriteModel, len(quotes))
	for i, cq := range quotes {
		models[i] = mongodrv.NewUpdateOneModel().
			SetFilter(bson.M{"_id": cq.ID, "quotation_id": quotationID}).
			SetUpdate(bson.M{"$set": bson.M{
				"ranking":        cq.Ranking,
				"is_recommended": cq.IsRecommended,
			}})
	}

	if _, err := repo.quotes.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("company_quotes.bulkWrite: %w", err)
	}
	return nil
}

func (repo *QuotationRepoMongo) NextQuotationSeq(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	// Atomic increment using FindOneAndUpdate with upsert
	filter := bson.M{"_id": "quotation_seq"}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result struct {
		Seq int64 `bson:"seq"`
	}
	if err := repo.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return 0, fmt.Errorf("quotations.nextSeq: %w", err)
	}
	return result.Seq, nil
}

// mapWriteErr converts duplicate-key failures to core.ErrConflict.
func mapWriteErr(op string, err error) error {
	var we mongodrv.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return core.ErrConflict
			}
		}
	}
	var bwe mongodrv.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return core.ErrConflict
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
