package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brokercore/motorquote/internal/core"
)

type QuotationItem struct {
	ID           string      `dynamodbav:"id"`
	Seq          int64       `dynamodbav:"seq"`
	CustomerID   string      `dynamodbav:"customer_id"`
	PolicyTypeID string      `dynamodbav:"policy_type_id"`
	Vehicle      VehicleItem `dynamodbav:"vehicle"`
	IDV          IDVItem     `dynamodbav:"idv"`
	TotalIDV     float64     `dynamodbav:"total_idv"`
	Addons       []string    `dynamodbav:"addons,omitempty"`
	NCBPercent   float64     `dynamodbav:"ncb_percent"`
	PreviousNCB  float64     `dynamodbav:"previous_ncb"`
	ODDiscount   float64     `dynamodbav:"od_discount"`
	Remarks      string      `dynamodbav:"remarks,omitempty"`
	Status       string      `dynamodbav:"status"`
	CreatedBy    string      `dynamodbav:"created_by,omitempty"`
	UpdatedBy    string      `dynamodbav:"updated_by,omitempty"`
	CreatedAt    string      `dynamodbav:"created_at"`
	UpdatedAt    string      `dynamodbav:"updated_at"`
}

type VehicleItem struct {
	Make              string `dynamodbav:"make,omitempty"`
	Model             string `dynamodbav:"model,omitempty"`
	Variant           string `dynamodbav:"variant,omitempty"`
	ManufacturingYear int    `dynamodbav:"manufacturing_year"`
	RegistrationYear  int    `dynamodbav:"registration_year"`
	FuelType          string `dynamodbav:"fuel_type"`
	RTOCode           string `dynamodbav:"rto_code,omitempty"`
	CubicCapacity     int    `dynamodbav:"cubic_capacity,omitempty"`
	SeatingCapacity   int    `dynamodbav:"seating_capacity,omitempty"`
}

type IDVItem struct {
	Vehicle       float64 `dynamodbav:"vehicle"`
	Trailer       float64 `dynamodbav:"trailer"`
	CNGLPGKit     float64 `dynamodbav:"cng_lpg_kit"`
	Electrical    float64 `dynamodbav:"electrical"`
	NonElectrical float64 `dynamodbav:"non_electrical"`
}

type CompanyQuoteItem struct {
	ID                 string             `dynamodbav:"id"`
	QuotationID        string             `dynamodbav:"quotation_id"`
	CompanyID          string             `dynamodbav:"company_id"`
	QuoteNumber        string             `dynamodbav:"quote_number"`
	BasicODPremium     float64            `dynamodbav:"basic_od_premium"`
	CNGLPGPremium      float64            `dynamodbav:"cng_lpg_premium"`
	TotalODPremium     float64            `dynamodbav:"total_od_premium"`
	AddonBreakup       map[string]float64 `dynamodbav:"addon_breakup,omitempty"`
	TotalAddonPremium  float64            `dynamodbav:"total_addon_premium"`
	NetPremium         float64            `dynamodbav:"net_premium"`
	SGST               float64            `dynamodbav:"sgst"`
	CGST               float64            `dynamodbav:"cgst"`
	TotalPremium       float64            `dynamodbav:"total_premium"`
	RoadsideAssistance float64            `dynamodbav:"roadside_assistance"`
	FinalPremium       float64            `dynamodbav:"final_premium"`
	Benefits           string             `dynamodbav:"benefits,omitempty"`
	Exclusions         string             `dynamodbav:"exclusions,omitempty"`
	IsRecommended      bool               `dynamodbav:"is_recommended"`
	Ranking            int                `dynamodbav:"ranking"`
	CreatedAt          string             `dynamodbav:"created_at"`
}

func (i QuotationItem) ToCore() core.Quotation {
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	return core.Quotation{
		ID:           i.ID,
		Seq:          i.Seq,
		CustomerID:   i.CustomerID,
		PolicyTypeID: i.PolicyTypeID,
		Vehicle: core.VehicleDetails{
			Make:              i.Vehicle.Make,
			Model:             i.Vehicle.Model,
			Variant:           i.Vehicle.Variant,
			ManufacturingYear: i.Vehicle.ManufacturingYear,
			RegistrationYear:  i.Vehicle.RegistrationYear,
			FuelType:          i.Vehicle.FuelType,
			RTOCode:           i.Vehicle.RTOCode,
			CubicCapacity:     i.Vehicle.CubicCapacity,
			SeatingCapacity:   i.Vehicle.SeatingCapacity,
		},
		IDV: core.IDVBreakup{
			Vehicle:       i.IDV.Vehicle,
			Trailer:       i.IDV.Trailer,
			CNGLPGKit:     i.IDV.CNGLPGKit,
			Electrical:    i.IDV.Electrical,
			NonElectrical: i.IDV.NonElectrical,
		},
		TotalIDV:    i.TotalIDV,
		Addons:      i.Addons,
		NCBPercent:  i.NCBPercent,
		PreviousNCB: i.PreviousNCB,
		ODDiscount:  i.ODDiscount,
		Remarks:     i.Remarks,
		Status:      core.QuotationStatus(i.Status),
		CreatedBy:   i.CreatedBy,
		UpdatedBy:   i.UpdatedBy,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func quotationItemFromCore(q core.Quotation) QuotationItem {
	return QuotationItem{
		ID:           q.ID,
		Seq:          q.Seq,
		CustomerID:   q.CustomerID,
		PolicyTypeID: q.PolicyTypeID,
		Vehicle: VehicleItem{
			Make:              q.Vehicle.Make,
			Model:             q.Vehicle.Model,
			Variant:           q.Vehicle.Variant,
			ManufacturingYear: q.Vehicle.ManufacturingYear,
			RegistrationYear:  q.Vehicle.RegistrationYear,
			FuelType:          q.Vehicle.FuelType,
			RTOCode:           q.Vehicle.RTOCode,
			CubicCapacity:     q.Vehicle.CubicCapacity,
			SeatingCapacity:   q.Vehicle.SeatingCapacity,
		},
		IDV: IDVItem{
			Vehicle:       q.IDV.Vehicle,
			Trailer:       q.IDV.Trailer,
			CNGLPGKit:     q.IDV.CNGLPGKit,
			Electrical:    q.IDV.Electrical,
			NonElectrical: q.IDV.NonElectrical,
		},
		TotalIDV:    q.TotalIDV,
		Addons:      q.Addons,
		NCBPercent:  q.NCBPercent,
		PreviousNCB: q.PreviousNCB,
		ODDiscount:  q.ODDiscount,
		Remarks:     q.Remarks,
		Status:      string(q.Status),
		CreatedBy:   q.CreatedBy,
		UpdatedBy:   q.UpdatedBy,
		CreatedAt:   q.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   q.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (i CompanyQuoteItem) ToCore() core.CompanyQuote {
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return core.CompanyQuote{
		ID:                 i.ID,
		QuotationID:        i.QuotationID,
		CompanyID:          i.CompanyID,
		QuoteNumber:        i.QuoteNumber,
		BasicODPremium:     i.BasicODPremium,
		CNGLPGPremium:      i.CNGLPGPremium,
		TotalODPremium:     i.TotalODPremium,
		AddonBreakup:       i.AddonBreakup,
		TotalAddonPremium:  i.TotalAddonPremium,
		NetPremium:         i.NetPremium,
		SGST:               i.SGST,
		CGST:               i.CGST,
		TotalPremium:       i.TotalPremium,
		RoadsideAssistance: i.RoadsideAssistance,
		FinalPremium:       i.FinalPremium,
		Benefits:           i.Benefits,
		Exclusions:         i.Exclusions,
		IsRecommended:      i.IsRecommended,
		Ranking:            i.Ranking,
		CreatedAt:          createdAt,
	}
}

func companyQuoteItemFromCore(cq core.CompanyQuote) CompanyQuoteItem {
	return CompanyQuoteItem{
		ID:                 cq.ID,
		QuotationID:        cq.QuotationID,
		CompanyID:          cq.CompanyID,
		QuoteNumber:        cq.QuoteNumber,
		BasicODPremium:     cq.BasicODPremium,
		CNGLPGPremium:      cq.CNGLPGPremium,
		TotalODPremium:     cq.TotalODPremium,
		AddonBreakup:       cq.AddonBreakup,
		TotalAddonPremium:  cq.TotalAddonPremium,
		NetPremium:         cq.NetPremium,
		SGST:               cq.SGST,
		CGST:               cq.CGST,
		TotalPremium:       cq.TotalPremium,
		RoadsideAssistance: cq.RoadsideAssistance,
		FinalPremium:       cq.FinalPremium,
		Benefits:           cq.Benefits,
		Exclusions:         cq.Exclusions,
		IsRecommended:      cq.IsRecommended,
		Ranking:            cq.Ranking,
		CreatedAt:          cq.CreatedAt.Format(time.RFC3339Nano),
	}
}

type QuotationRepo struct {
	client *dynamodb.Client
}

func NewQuotationRepo(client *dynamodb.Client) *QuotationRepo {
	return &QuotationRepo{client: client}
}

// Create writes the quotation and all of its company quotes in a single
// TransactWriteItems call: either every item commits or none do.
func (r *QuotationRepo) Create(ctx context.Context, q core.Quotation) error {
	quotationAV, err := attributevalue.MarshalMap(quotationItemFromCore(q))
	if err != nil {
		return fmt.Errorf("quotations.marshal: %w", err)
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(TableQuotations),
			Item:                quotationAV,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	}}

	for _, cq := range q.Quotes {
		av, err := attributevalue.MarshalMap(companyQuoteItemFromCore(cq))
		if err != nil {
			return fmt.Errorf("company_quotes.marshal: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(TableCompanyQuotes),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return mapTransactErr("quotations.create", err)
	}
	return nil
}

func (r *QuotationRepo) Get(ctx context.Context, id string) (core.Quotation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableQuotations),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.Quotation{}, fmt.Errorf("quotations.getItem: %w", err)
	}
	if out.Item == nil {
		return core.Quotation{}, core.ErrQuotationNotFound
	}

	var item QuotationItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Quotation{}, fmt.Errorf("quotations.unmarshal: %w", err)
	}

	q := item.ToCore()
	q.Quotes, err = r.findQuotes(ctx, id)
	if err != nil {
		return core.Quotation{}, err
	}
	return q, nil
}

func (r *QuotationRepo) findQuotes(ctx context.Context, quotationID string) ([]core.CompanyQuote, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableCompanyQuotes),
		IndexName:              aws.String(GSIQuotesQuotationID),
		KeyConditionExpression: aws.String("quotation_id = :qid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qid": &types.AttributeValueMemberS{Value: quotationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("company_quotes.query: %w", err)
	}

	var items []CompanyQuoteItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("company_quotes.unmarshal: %w", err)
	}

	quotes := make([]core.CompanyQuote, len(items))
	for i, item := range items {
		quotes[i] = item.ToCore()
	}
	// GSI order is not meaningful; present ranked order.
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Ranking != quotes[j].Ranking {
			return quotes[i].Ranking < quotes[j].Ranking
		}
		return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
	})
	return quotes, nil
}

func (r *QuotationRepo) List(ctx context.Context, filter core.QuotationFilter, limit, offset int) ([]core.Quotation, int64, error) {
	var filterExpr *expression.Expression
	builder := expression.NewBuilder()
	hasFilter := false

	cond := expression.ConditionBuilder{}
	if filter.CustomerID != "" {
		cond = expression.Name("customer_id").Equal(expression.Value(filter.CustomerID))
		hasFilter = true
	}
	if filter.Status != "" {
		statusCond := expression.Name("status").Equal(expression.Value(string(filter.Status)))
		if hasFilter {
			cond = cond.And(statusCond)
		} else {
			cond = statusCond
			hasFilter = true
		}
	}
	if hasFilter {
		expr, err := builder.WithFilter(cond).Build()
		if err != nil {
			return nil, 0, fmt.Errorf("quotations.buildExpr: %w", err)
		}
		filterExpr = &expr
	}

	input := &dynamodb.ScanInput{TableName: aws.String(TableQuotations)}
	if filterExpr != nil {
		input.FilterExpression = filterExpr.Filter()
		input.ExpressionAttributeNames = filterExpr.Names()
		input.ExpressionAttributeValues = filterExpr.Values()
	}

	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, 0, fmt.Errorf("quotations.scan: %w", err)
	}

	var items []QuotationItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, 0, fmt.Errorf("quotations.unmarshal: %w", err)
	}

	// Scan order is arbitrary; newest first like the document store.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})

	total := int64(len(items))
	if offset >= len(items) {
		return []core.Quotation{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	page := items[offset:end]
	quotations := make([]core.Quotation, len(page))
	for i, item := range page {
		quotations[i] = item.ToCore()
	}
	return quotations, total, nil
}

// Update rewrites the quotation item, deletes every existing company quote
// and inserts the new set in one TransactWriteItems call.
func (r *QuotationRepo) Update(ctx context.Context, q core.Quotation) error {
	existing, err := r.findQuotes(ctx, q.ID)
	if err != nil {
		return err
	}

	quotationAV, err := attributevalue.MarshalMap(quotationItemFromCore(q))
	if err != nil {
		return fmt.Errorf("quotations.marshal: %w", err)
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(TableQuotations),
			Item:                quotationAV,
			ConditionExpression: aws.String("attribute_exists(id)"),
		},
	}}
	items = append(items, deleteQuoteItems(existing)...)
	items, err = appendQuoteItems(items, q.Quotes)
	if err != nil {
		return err
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return mapTransactErr("quotations.update", err)
	}
	return nil
}

func (r *QuotationRepo) Delete(ctx context.Context, id string) error {
	existing, err := r.findQuotes(ctx, id)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName: aws.String(TableQuotations),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			},
			ConditionExpression: aws.String("attribute_exists(id)"),
		},
	}}
	items = append(items, deleteQuoteItems(existing)...)

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		if isConditionalCheckFailed(err) {
			return core.ErrQuotationNotFound
		}
		return mapTransactErr("quotations.delete", err)
	}
	return nil
}

func (r *QuotationRepo) ReplaceQuotes(ctx context.Context, quotationID string, quotes []core.CompanyQuote) error {
	existing, err := r.findQuotes(ctx, quotationID)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{{
		ConditionCheck: &types.ConditionCheck{
			TableName: aws.String(TableQuotations),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: quotationID},
			},
			ConditionExpression: aws.String("attribute_exists(id)"),
		},
	}}
	items = append(items, deleteQuoteItems(existing)...)
	items, err = appendQuoteItems(items, quotes)
	if err != nil {
		return err
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		if isConditionalCheckFailed(err) {
			return core.ErrQuotationNotFound
		}
		return mapTransactErr("company_quotes.replace", err)
	}
	return nil
}

func (r *QuotationRepo) UpdateQuoteRanking(ctx context.Context, quotationID string, quotes []core.CompanyQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(quotes))
	for _, cq := range quotes {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(TableCompanyQuotes),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: cq.ID},
				},
				UpdateExpression:    aws.String("SET #r = :rank, is_recommended = :rec"),
				ConditionExpression: aws.String("quotation_id = :qid"),
				ExpressionAttributeNames: map[string]string{
					"#r": "ranking",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":rank": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", cq.Ranking)},
					":rec":  &types.AttributeValueMemberBOOL{Value: cq.IsRecommended},
					":qid":  &types.AttributeValueMemberS{Value: quotationID},
				},
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return mapTransactErr("company_quotes.rank", err)
	}
	return nil
}

func (r *QuotationRepo) NextQuotationSeq(ctx context.Context) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableCounters),
		Key: map[string]types.AttributeValue{
			"counter_name": &types.AttributeValueMemberS{Value: "quotation_seq"},
		},
		UpdateExpression: aws.String("SET counter_value = if_not_exists(counter_value, :zero) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("counters.updateItem: %w", err)
	}

	attr, ok := out.Attributes["counter_value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counters.updateItem: unexpected counter_value attribute")
	}
	seq, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counters.parse: %w", err)
	}
	return seq, nil
}

func deleteQuoteItems(quotes []core.CompanyQuote) []types.TransactWriteItem {
	items := make([]types.TransactWriteItem, 0, len(quotes))
	for _, cq := range quotes {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(TableCompanyQuotes),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: cq.ID},
				},
			},
		})
	}
	return items
}

func appendQuoteItems(items []types.TransactWriteItem, quotes []core.CompanyQuote) ([]types.TransactWriteItem, error) {
	for _, cq := range quotes {
		av, err := attributevalue.MarshalMap(companyQuoteItemFromCore(cq))
		if err != nil {
			return nil, fmt.Errorf("company_quotes.marshal: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(TableCompanyQuotes),
				Item:      av,
			},
		})
	}
	return items, nil
}

func isConditionalCheckFailed(err error) bool {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	var failed *types.ConditionalCheckFailedException
	return errors.As(err, &failed)
}

func mapTransactErr(op string, err error) error {
	if isConditionalCheckFailed(err) {
		return core.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
