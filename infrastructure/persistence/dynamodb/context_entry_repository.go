package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/pkg/common"
	apperrors "agentmesh/pkg/errors"
	"agentmesh/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ContextEntryRepository implements the ContextEntryRepository port on
// DynamoDB. Entries live under the session partition with a zero-padded
// seq sort key, so "latest" and "history, newest first" are both one
// descending query.
//
//	PK = SESSION#<session_id>  SK = CTX#<seq, zero-padded>
type ContextEntryRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewContextEntryRepository creates a new DynamoDB context entry repository
func NewContextEntryRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ContextEntryRepository {
	return &ContextEntryRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// contextEntryItem represents the DynamoDB item structure for an entry
type contextEntryItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	EntryID     string                 `dynamodbav:"EntryID"`
	SessionID   string                 `dynamodbav:"SessionID"`
	Tenant      string                 `dynamodbav:"Tenant"`
	Seq         int64                  `dynamodbav:"Seq"`
	Context     map[string]interface{} `dynamodbav:"Context"`
	ContextHash string                 `dynamodbav:"ContextHash"`
	CreatedAt   string                 `dynamodbav:"CreatedAt"`
}

// GetCurrent retrieves the latest entry for a session, or nil when the
// log is still empty
func (r *ContextEntryRepository) GetCurrent(ctx context.Context, sessionID valueobjects.SessionID) (*entities.ContextEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(sessionPK(sessionID))).
		And(expression.Key("SK").BeginsWith("CTX#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, translateError("get current context", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item contextEntryItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context entry: %w", err)
	}
	return r.itemToEntry(item)
}

// AppendAndSwapPointer atomically inserts the entry and repoints the
// session's current_context_id at it. The entry put is conditional on the
// (session, seq) slot being free and the pointer update is conditional on
// the session row existing; DynamoDB commits both or neither, so a
// cancelled caller can never leave a half-applied pointer.
func (r *ContextEntryRepository) AppendAndSwapPointer(ctx context.Context, entry *entities.ContextEntry) error {
	item := contextEntryItem{
		PK:          sessionPK(entry.SessionID),
		SK:          contextSK(entry.Seq),
		EntityType:  "CONTEXT_ENTRY",
		EntryID:     entry.ID,
		SessionID:   entry.SessionID.String(),
		Tenant:      entry.Tenant,
		Seq:         entry.Seq,
		Context:     entry.Context,
		ContextHash: entry.ContextHash.String(),
		CreatedAt:   utils.FormatTimestamp(entry.CreatedAt),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal context entry: %w", err)
	}

	now := utils.FormatTimestamp(time.Now())
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: sessionPK(entry.SessionID)},
						"SK": &types.AttributeValueMemberS{Value: "METADATA"},
					},
					UpdateExpression:    aws.String("SET CurrentContextID = :cid, UpdatedAt = :now"),
					ConditionExpression: aws.String("attribute_exists(PK)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":cid": &types.AttributeValueMemberS{Value: entry.ID},
						":now": &types.AttributeValueMemberS{Value: now},
					},
				},
			},
		},
	})
	if err != nil {
		return r.translateAppendError(entry, err)
	}

	r.logger.Debug("Context entry appended",
		zap.String("sessionID", entry.SessionID.String()),
		zap.Int64("seq", entry.Seq),
		zap.String("entryID", entry.ID),
	)
	return nil
}

// translateAppendError distinguishes a lost seq race from a vanished
// session using the per-item cancellation reasons
func (r *ContextEntryRepository) translateAppendError(entry *entities.ContextEntry, err error) error {
	var txCanceled *types.TransactionCanceledException
	if errors.As(err, &txCanceled) && len(txCanceled.CancellationReasons) == 2 {
		entryReason, sessionReason := txCanceled.CancellationReasons[0], txCanceled.CancellationReasons[1]
		if conditionFailed(sessionReason) && !conditionFailed(entryReason) {
			return apperrors.NewNotFoundError("session").
				WithCause(err).
				WithDetails(map[string]interface{}{"session_id": entry.SessionID.String()})
		}
		if conditionFailed(entryReason) {
			return apperrors.NewConflictError("context entry seq already taken").
				WithCause(err).
				WithDetails(map[string]interface{}{
					"session_id": entry.SessionID.String(),
					"seq":        entry.Seq,
				})
		}
	}
	return translateError("append context entry", err)
}

func conditionFailed(reason types.CancellationReason) bool {
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}

// History lists entries most recent first with cursor pagination
func (r *ContextEntryRepository) History(ctx context.Context, sessionID valueobjects.SessionID, limit int, cursor string) ([]entities.ContextEntry, string, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(sessionPK(sessionID))).
		And(expression.Key("SK").BeginsWith("CTX#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	}

	if cursor != "" {
		lastSeq, err := common.DecodeCursor(cursor)
		if err != nil {
			return nil, "", apperrors.NewValidationError(err.Error())
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: contextSK(lastSeq)},
		}
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", translateError("query context history", err)
	}

	entries := make([]entities.ContextEntry, 0, len(result.Items))
	for _, raw := range result.Items {
		var item contextEntryItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal context entry", zap.Error(err))
			continue
		}
		entry, err := r.itemToEntry(item)
		if err != nil {
			r.logger.Warn("Skipping corrupt context entry",
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, *entry)
	}

	nextCursor := ""
	if result.LastEvaluatedKey != nil && len(entries) > 0 {
		nextCursor = common.EncodeCursor(entries[len(entries)-1].Seq)
	}
	return entries, nextCursor, nil
}

func (r *ContextEntryRepository) itemToEntry(item contextEntryItem) (*entities.ContextEntry, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(item.SessionID)
	if err != nil {
		return nil, fmt.Errorf("corrupt context entry row: %w", err)
	}
	hash, err := valueobjects.NewContextHashFromString(item.ContextHash)
	if err != nil {
		return nil, fmt.Errorf("corrupt context hash: %w", err)
	}
	createdAt, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse context entry created_at: %w", err)
	}
	return &entities.ContextEntry{
		ID:          item.EntryID,
		SessionID:   sessionID,
		Tenant:      item.Tenant,
		Seq:         item.Seq,
		Context:     item.Context,
		ContextHash: hash,
		CreatedAt:   createdAt,
	}, nil
}

func contextSK(seq int64) string {
	return fmt.Sprintf("CTX#%020d", seq)
}
