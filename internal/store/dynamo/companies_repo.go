package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/internal/platform/ids"
)

type CompanyItem struct {
	ID         string             `dynamodbav:"id"`
	Code       int                `dynamodbav:"code"`
	Name       string             `dynamodbav:"name"`
	Active     bool               `dynamodbav:"active"`
	AddonRates map[string]float64 `dynamodbav:"addon_rates,omitempty"`
	CreatedAt  string             `dynamodbav:"created_at"`
}

func (i CompanyItem) ToCore() core.InsuranceCompany {
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return core.InsuranceCompany{
		ID:         i.ID,
		Code:       i.Code,
		Name:       i.Name,
		Active:     i.Active,
		AddonRates: i.AddonRates,
		CreatedAt:  createdAt,
	}
}

func companyItemFromCore(c core.InsuranceCompany) CompanyItem {
	return CompanyItem{
		ID:         c.ID,
		Code:       c.Code,
		Name:       c.Name,
		Active:     c.Active,
		AddonRates: c.AddonRates,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339Nano),
	}
}

type CompanyRepo struct {
	client *dynamodb.Client
}

func NewCompanyRepo(client *dynamodb.Client) *CompanyRepo {
	return &CompanyRepo{client: client}
}

func (r *CompanyRepo) List(ctx context.Context) ([]core.InsuranceCompany, error) {
	return r.scan(ctx, nil, 0)
}

func (r *CompanyRepo) ListActive(ctx context.Context, limit int) ([]core.InsuranceCompany, error) {
	cond := expression.Name("active").Equal(expression.Value(true))
	return r.scan(ctx, &cond, limit)
}

func (r *CompanyRepo) scan(ctx context.Context, filter *expression.ConditionBuilder, limit int) ([]core.InsuranceCompany, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(TableCompanies)}
	if filter != nil {
		expr, err := expression.NewBuilder().WithFilter(*filter).Build()
		if err != nil {
			return nil, fmt.Errorf("companies.buildExpr: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("companies.scan: %w", err)
	}

	var items []CompanyItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("companies.unmarshal: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	companies := make([]core.InsuranceCompany, len(items))
	for i, item := range items {
		companies[i] = item.ToCore()
	}
	return companies, nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (core.InsuranceCompany, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableCompanies),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.InsuranceCompany{}, fmt.Errorf("companies.getItem: %w", err)
	}
	if out.Item == nil {
		return core.InsuranceCompany{}, core.ErrCompanyNotFound
	}

	var item CompanyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.InsuranceCompany{}, fmt.Errorf("companies.unmarshal: %w", err)
	}
	return item.ToCore(), nil
}

// UpsertByCode keeps the identity of an existing company with the same code,
// matching the document-store behaviour.
func (r *CompanyRepo) UpsertByCode(ctx context.Context, c core.InsuranceCompany) error {
	existing, err := r.findByCode(ctx, c.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		c.ID = existing.ID
		if createdAt, parseErr := time.Parse(time.RFC3339Nano, existing.CreatedAt); parseErr == nil {
			c.CreatedAt = createdAt
		}
	} else {
		if c.ID == "" {
			c.ID = ids.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
	}

	av, err := attributevalue.MarshalMap(companyItemFromCore(c))
	if err != nil {
		return fmt.Errorf("companies.marshal: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableCompanies),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("companies.putItem: %w", err)
	}
	return nil
}

func (r *CompanyRepo) findByCode(ctx context.Context, code int) (*CompanyItem, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableCompanies),
		IndexName:              aws.String(GSICompaniesCode),
		KeyConditionExpression: aws.String("code = :code"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", code)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("companies.queryCode: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item CompanyItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("companies.unmarshal: %w", err)
	}
	return &item, nil
}
