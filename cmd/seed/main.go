package main

import (
	"context"
	"time"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/internal/platform/config"
	"github.com/brokercore/motorquote/internal/platform/logging"
	"github.com/brokercore/motorquote/internal/store/dynamo"
	"github.com/brokercore/motorquote/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var companyRepo core.CompanyRepo

	switch cfg.DBType {
	case "mongo":
		client, err := mongo.NewClient(cfg)
		if err != nil {
			log.Error("failed to connect to MongoDB", "err", err)
			return
		}
		defer client.Close(ctx)

		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			log.Error("failed to ensure indexes", "err", err)
			return
		}
		companyRepo = mongo.NewCompanyRepo(client, 5*time.Second)

	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Error("failed to connect to DynamoDB", "err", err)
			return
		}
		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			log.Error("failed to ensure tables", "err", err)
			return
		}
		companyRepo = dynamo.NewCompanyRepo(client.DB)

	default:
		log.Error("unknown DB_TYPE", "db_type", cfg.DBType)
		return
	}

	log.Info("seeding insurance companies")

	companies := []core.InsuranceCompany{
		{
			Code:   1,
			Name:   "TATA AIG",
			Active: true,
		},
		{
			Code:   2,
			Name:   "HDFC ERGO",
			Active: true,
			AddonRates: map[string]float64{
				core.OverrideZeroDep: 0.5,
			},
		},
		{
			Code:   3,
			Name:   "ICICI Lombard",
			Active: true,
			AddonRates: map[string]float64{
				core.OverrideEngineSecure: 0.12,
			},
		},
		{
			Code:   4,
			Name:   "Bajaj Allianz",
			Active: true,
			AddonRates: map[string]float64{
				core.OverrideReturnToInvoice: 0.09,
				core.OverrideTyreSecure:      0.22,
			},
		},
		{
			Code:   5,
			Name:   "Reliance General",
			Active: true,
		},
	}

	for _, c := range companies {
		if err := companyRepo.UpsertByCode(ctx, c); err != nil {
			log.Error("failed to upsert company", "code", c.Code, "name", c.Name, "err", err)
			continue
		}
		log.Info("upserted company", "code", c.Code, "name", c.Name)
	}

	log.Info("done seeding")
}
