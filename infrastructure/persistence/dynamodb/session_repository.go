package dynamodb

import (
	"context"
	"fmt"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	apperrors "agentmesh/pkg/errors"
	"agentmesh/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// SessionRepository implements the SessionRepository port on DynamoDB.
//
// Each session writes two items: the canonical row addressed by session ID
// and a guard row addressed by (tenant, agent). The guard's conditional put
// is what enforces one session per (agent_id, tenant) pair; both items
// commit in one transaction so the pair can never half-exist.
//
//	PK = SESSION#<session_id>  SK = METADATA      (canonical)
//	PK = TENANT#<tenant>       SK = AGENT#<agent> (uniqueness guard)
type SessionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSessionRepository creates a new DynamoDB session repository
func NewSessionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SessionRepository {
	return &SessionRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// sessionItem represents the canonical session row
type sessionItem struct {
	PK               string  `dynamodbav:"PK"`
	SK               string  `dynamodbav:"SK"`
	EntityType       string  `dynamodbav:"EntityType"`
	SessionID        string  `dynamodbav:"SessionID"`
	Tenant           string  `dynamodbav:"Tenant"`
	AgentID          string  `dynamodbav:"AgentID"`
	CurrentContextID *string `dynamodbav:"CurrentContextID,omitempty"`
	CreatedAt        string  `dynamodbav:"CreatedAt"`
	UpdatedAt        string  `dynamodbav:"UpdatedAt"`
}

// agentGuardItem reserves the (tenant, agent) pair
type agentGuardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	SessionID  string `dynamodbav:"SessionID"`
}

// Create persists a new session, conflicting when the (agent, tenant)
// pair already has one
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	canonical := sessionItem{
		PK:               sessionPK(session.ID),
		SK:               "METADATA",
		EntityType:       "SESSION",
		SessionID:        session.ID.String(),
		Tenant:           session.Tenant,
		AgentID:          session.AgentID,
		CurrentContextID: session.CurrentContextID,
		CreatedAt:        utils.FormatTimestamp(session.CreatedAt),
		UpdatedAt:        utils.FormatTimestamp(session.UpdatedAt),
	}
	guard := agentGuardItem{
		PK:         tenantPK(session.Tenant),
		SK:         agentSK(session.AgentID),
		EntityType: "SESSION_GUARD",
		SessionID:  session.ID.String(),
	}

	canonicalAV, err := attributevalue.MarshalMap(canonical)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	guardAV, err := attributevalue.MarshalMap(guard)
	if err != nil {
		return fmt.Errorf("failed to marshal session guard: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                guardAV,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                canonicalAV,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		translated := translateError("create session", err)
		if apperrors.IsConflict(translated) {
			return apperrors.NewConflictError("session already exists for agent").
				WithCause(err).
				WithDetails(map[string]interface{}{
					"agent_id": session.AgentID,
					"tenant":   session.Tenant,
				})
		}
		return translated
	}

	r.logger.Debug("Session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("agentID", session.AgentID),
		zap.String("tenant", session.Tenant),
	)
	return nil
}

// GetByID retrieves a session by its ID
func (r *SessionRepository) GetByID(ctx context.Context, id valueobjects.SessionID) (*entities.Session, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, translateError("get session", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"session_id": id.String(),
		})
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return r.itemToSession(item)
}

// GetByAgent retrieves the session for an (agent, tenant) pair
func (r *SessionRepository) GetByAgent(ctx context.Context, agentID, tenant string) (*entities.Session, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantPK(tenant)},
			"SK": &types.AttributeValueMemberS{Value: agentSK(agentID)},
		},
	})
	if err != nil {
		return nil, translateError("get session guard", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"agent_id": agentID,
			"tenant":   tenant,
		})
	}

	var guard agentGuardItem
	if err := attributevalue.UnmarshalMap(result.Item, &guard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session guard: %w", err)
	}
	sessionID, err := valueobjects.NewSessionIDFromString(guard.SessionID)
	if err != nil {
		return nil, fmt.Errorf("corrupt session guard for agent %s: %w", agentID, err)
	}
	return r.GetByID(ctx, sessionID)
}

func (r *SessionRepository) itemToSession(item sessionItem) (*entities.Session, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(item.SessionID)
	if err != nil {
		return nil, fmt.Errorf("corrupt session row: %w", err)
	}
	createdAt, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session created_at: %w", err)
	}
	updatedAt, err := utils.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session updated_at: %w", err)
	}
	return &entities.Session{
		ID:               sessionID,
		Tenant:           item.Tenant,
		AgentID:          item.AgentID,
		CurrentContextID: item.CurrentContextID,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func sessionPK(id valueobjects.SessionID) string {
	return fmt.Sprintf("SESSION#%s", id.String())
}

func tenantPK(tenant string) string {
	return fmt.Sprintf("TENANT#%s", tenant)
}

func agentSK(agentID string) string {
	return fmt.Sprintf("AGENT#%s", agentID)
}
