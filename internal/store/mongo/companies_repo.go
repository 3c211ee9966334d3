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
	"github.com/brokercore/motorquote/internal/platform/ids"
)

type CompanyRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewCompanyRepo(c *Client, opTimeout time.Duration) *CompanyRepoMongo {
	return &CompanyRepoMongo{
		coll:      c.DB.Collection(ColCompanies),
		opTimeout: opTimeout,
	}
}

func (repo *CompanyRepoMongo) List(ctx context.Context) ([]core.InsuranceCompany, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.find(ctx, bson.M{}, 0)
}

func (repo *CompanyRepoMongo) ListActive(ctx context.Context, limit int) ([]core.InsuranceCompany, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	return repo.find(ctx, bson.M{"active": true}, int64(limit))
}

func (repo *CompanyRepoMongo) find(ctx context.Context, query bson.M, limit int64) ([]core.InsuranceCompany, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	if limit > 0 {
		findOpts = findOpts.SetLimit(limit)
	}

	cur, err := repo.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("companies.find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []CompanyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("companies.decode: %w", err)
	}

	companies := make([]core.InsuranceCompany, len(docs))
	for i, d := range docs {
		companies[i] = fromCompanyDoc(d)
	}
	return companies, nil
}

func (repo *CompanyRepoMongo) GetByID(ctx context.Context, id string) (core.InsuranceCompany, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc CompanyDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.InsuranceCompany{}, core.ErrCompanyNotFound
		}
		return core.InsuranceCompany{}, fmt.Errorf("companies.findOne: %w", err)
	}
	return fromCompanyDoc(doc), nil
}

// UpsertByCode inserts or replaces the company identified by its numeric
// code. The document ID is preserved on replace.
func (repo *CompanyRepoMongo) UpsertByCode(ctx context.Context, c core.InsuranceCompany) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var existing CompanyDoc
	err := repo.coll.FindOne(ctx, bson.M{"code": c.Code}).Decode(&existing)
	switch {
	case err == nil:
		c.ID = existing.ID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = existing.CreatedAt
		}
	case errors.Is(err, mongodrv.ErrNoDocuments):
		if c.ID == "" {
			c.ID = ids.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
	default:
		return fmt.Errorf("companies.findOne: %w", err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"code": c.Code}, toCompanyDoc(c), opts); err != nil {
		return mapWriteErr("companies.replace", err)
	}
	return nil
}
