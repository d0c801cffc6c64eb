package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoClient is an in-memory DynamoClient. Items live in per-table
// slices; GetItem and DeleteItem match on the key attributes, Query filters
// on the expression attribute values (placeholder names match the attribute
// names throughout this codebase). UpdateItem only records its input: tests
// assert on recorded updates instead of re-reading state.
type fakeDynamoClient struct {
	mu     sync.Mutex
	tables map[string][]map[string]types.AttributeValue

	updates   []*dynamodb.UpdateItemInput
	deletes   []*dynamodb.DeleteItemInput
	scanCalls map[string]int

	// failPutTables makes PutItem fail for the named tables.
	failPutTables map[string]bool
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{
		tables:        make(map[string][]map[string]types.AttributeValue),
		scanCalls:     make(map[string]int),
		failPutTables: make(map[string]bool),
	}
}

// seed marshals a model and stores it in the named table.
func (f *fakeDynamoClient) seed(t interface{ Fatalf(string, ...interface{}) }, table string, item interface{}) {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		t.Fatalf("failed to marshal seed item: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], marshaled)
}

func (f *fakeDynamoClient) tableLen(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// updatesFor returns the recorded updates against one table.
func (f *fakeDynamoClient) updatesFor(table string) []*dynamodb.UpdateItemInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*dynamodb.UpdateItemInput
	for _, u := range f.updates {
		if *u.TableName == table {
			result = append(result, u)
		}
	}
	return result
}

func attrString(value types.AttributeValue) (string, bool) {
	s, ok := value.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func matchesKey(item, key map[string]types.AttributeValue) bool {
	for name, want := range key {
		wantValue, ok := attrString(want)
		if !ok {
			return false
		}
		haveValue, ok := attrString(item[name])
		if !ok || haveValue != wantValue {
			return false
		}
	}
	return true
}

func (f *fakeDynamoClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []map[string]types.AttributeValue
	for _, item := range f.tables[*params.TableName] {
		matches := true
		for placeholder, want := range params.ExpressionAttributeValues {
			attr := placeholder[1:] // ":conversationId" -> "conversationId"
			wantValue, ok := attrString(want)
			if !ok {
				continue
			}
			haveValue, ok := attrString(item[attr])
			if !ok || haveValue != wantValue {
				matches = false
				break
			}
		}
		if matches {
			items = append(items, item)
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls[*params.TableName]++
	return &dynamodb.ScanOutput{Items: f.tables[*params.TableName]}, nil
}

func (f *fakeDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range f.tables[*params.TableName] {
		if matchesKey(item, params.Key) {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPutTables[*params.TableName] {
		return nil, fmt.Errorf("injected failure for table %s", *params.TableName)
	}
	f.tables[*params.TableName] = append(f.tables[*params.TableName], params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, params)
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{}}, nil
}

func (f *fakeDynamoClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, params)

	items := f.tables[*params.TableName]
	for i, item := range items {
		if matchesKey(item, params.Key) {
			f.tables[*params.TableName] = append(items[:i], items[i+1:]...)
			break
		}
	}
	return &dynamodb.DeleteItemOutput{}, nil
}
