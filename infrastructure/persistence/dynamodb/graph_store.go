package dynamodb

import (
	"context"
	"fmt"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// GraphStore implements the GraphStore port on DynamoDB. One partition per
// capability holds both the edge items and the auxiliary tool index items,
// so a single query answers either question.
//
//	PK = CAP#<capability>   SK = EDGE#<from_id>#<to_id>
//	PK = CAP#<capability>   SK = TOOL#<tool_id>
type GraphStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewGraphStore creates a new DynamoDB graph store
func NewGraphStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.GraphStore {
	return &GraphStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// toolItem is the stored shape of a ToolDescriptor
type toolItem struct {
	ID          string                 `dynamodbav:"ID"`
	Name        string                 `dynamodbav:"Name"`
	Description string                 `dynamodbav:"Description,omitempty"`
	Parameters  map[string]interface{} `dynamodbav:"Parameters,omitempty"`
}

// edgeItem represents the DynamoDB item structure for a tool edge
type edgeItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	Capability      string   `dynamodbav:"Capability"`
	From            toolItem `dynamodbav:"From"`
	To              toolItem `dynamodbav:"To"`
	CompositeIntent *string  `dynamodbav:"CompositeIntent,omitempty"`
}

// toolIndexItem represents the auxiliary tool-to-capability index entry
type toolIndexItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	Capability string   `dynamodbav:"Capability"`
	Tool       toolItem `dynamodbav:"Tool"`
}

// QueryEdges retrieves all edges tagged with the capability
func (s *GraphStore) QueryEdges(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolEdge, error) {
	items, err := s.queryPartition(ctx, capability, "EDGE#")
	if err != nil {
		return nil, err
	}

	edges := make([]entities.ToolEdge, 0, len(items))
	for _, item := range items {
		var record edgeItem
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			s.logger.Warn("Failed to unmarshal edge item", zap.Error(err))
			continue
		}
		edge, err := s.recordToEdge(record)
		if err != nil {
			s.logger.Warn("Skipping invalid edge item",
				zap.String("capability", capability.String()),
				zap.String("sk", record.SK),
				zap.Error(err),
			)
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// QueryIsolatedTools retrieves capability-tagged tools with no edge for it.
// The partition holds both item kinds, so one pass over it resolves which
// indexed tools never appear as an edge endpoint.
func (s *GraphStore) QueryIsolatedTools(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolDescriptor, error) {
	items, err := s.queryPartition(ctx, capability, "")
	if err != nil {
		return nil, err
	}

	onEdges := make(map[string]bool)
	var indexed []toolIndexItem
	for _, item := range items {
		entityType := stringAttr(item, "EntityType")
		switch entityType {
		case "EDGE":
			var record edgeItem
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				continue
			}
			onEdges[record.From.ID] = true
			onEdges[record.To.ID] = true
		case "TOOLCAP":
			var record toolIndexItem
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				continue
			}
			indexed = append(indexed, record)
		}
	}

	tools := make([]entities.ToolDescriptor, 0, len(indexed))
	for _, record := range indexed {
		if onEdges[record.Tool.ID] {
			continue
		}
		tool, err := s.recordToTool(record.Tool)
		if err != nil {
			s.logger.Warn("Skipping invalid tool index item",
				zap.String("capability", capability.String()),
				zap.Error(err),
			)
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// SaveEdge persists an edge item
func (s *GraphStore) SaveEdge(ctx context.Context, edge entities.ToolEdge) error {
	item := edgeItem{
		PK:              capabilityPK(edge.Capability),
		SK:              fmt.Sprintf("EDGE#%s#%s", edge.From.ID.String(), edge.To.ID.String()),
		EntityType:      "EDGE",
		Capability:      edge.Capability.String(),
		From:            toolToRecord(edge.From),
		To:              toolToRecord(edge.To),
		CompositeIntent: edge.CompositeIntent,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return translateError("save edge", err)
	}
	return nil
}

// SaveTool records the tool in the capability's auxiliary index
func (s *GraphStore) SaveTool(ctx context.Context, tool entities.ToolDescriptor, capability valueobjects.Capability) error {
	item := toolIndexItem{
		PK:         capabilityPK(capability),
		SK:         fmt.Sprintf("TOOL#%s", tool.ID.String()),
		EntityType: "TOOLCAP",
		Capability: capability.String(),
		Tool:       toolToRecord(tool),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal tool index item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return translateError("save tool", err)
	}
	return nil
}

// queryPartition pages through one capability partition, optionally
// restricted to an SK prefix
func (s *GraphStore) queryPartition(ctx context.Context, capability valueobjects.Capability, skPrefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(capabilityPK(capability)))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, translateError("query capability partition", err)
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return items, nil
}

// recordToEdge rebuilds and re-validates a ToolEdge at the store boundary
func (s *GraphStore) recordToEdge(record edgeItem) (entities.ToolEdge, error) {
	capability, err := valueobjects.NewCapability(record.Capability)
	if err != nil {
		return entities.ToolEdge{}, err
	}
	from, err := s.recordToTool(record.From)
	if err != nil {
		return entities.ToolEdge{}, err
	}
	to, err := s.recordToTool(record.To)
	if err != nil {
		return entities.ToolEdge{}, err
	}
	return entities.NewToolEdge(from, to, capability, record.CompositeIntent)
}

func (s *GraphStore) recordToTool(record toolItem) (entities.ToolDescriptor, error) {
	id, err := valueobjects.NewToolID(record.ID)
	if err != nil {
		return entities.ToolDescriptor{}, err
	}
	tool, err := entities.NewToolDescriptor(id, record.Name)
	if err != nil {
		return entities.ToolDescriptor{}, err
	}
	tool.Description = record.Description
	tool.Parameters = record.Parameters
	return tool, nil
}

func toolToRecord(tool entities.ToolDescriptor) toolItem {
	return toolItem{
		ID:          tool.ID.String(),
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  tool.Parameters,
	}
}

func capabilityPK(capability valueobjects.Capability) string {
	return fmt.Sprintf("CAP#%s", capability.String())
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if av, ok := item[name].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}
