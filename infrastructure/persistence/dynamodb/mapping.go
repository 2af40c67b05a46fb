package dynamodb

import (
	"context"
	"errors"
	"fmt"

	apperrors "agentmesh/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// translateError maps DynamoDB failures onto the application taxonomy.
// Conditional-write losses become conflicts the services retry locally;
// everything else surfaces as store unavailability with the cause chained.
func translateError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return apperrors.NewConflictError(fmt.Sprintf("conditional write lost during %s", operation)).WithCause(err)
	}

	var txCanceled *types.TransactionCanceledException
	if errors.As(err, &txCanceled) {
		for _, reason := range txCanceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return apperrors.NewConflictError(fmt.Sprintf("transaction condition lost during %s", operation)).WithCause(err)
			}
		}
		return apperrors.NewConflictError(fmt.Sprintf("transaction canceled during %s", operation)).WithCause(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(operation).WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError(operation).WithCause(err)
	}

	return apperrors.NewUnavailableError("dynamodb", err)
}
