package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ShareNotificationInput is the input for the share notification workflow.
type ShareNotificationInput struct {
	AgentID    string
	ClientID   string
	ListingIDs []string
	Note       string
}

// ShareNotificationWorkflow orchestrates creating share records, pushing a
// notification to the client, and marking the shares notified. If the push
// fails, the share records are deleted (saga compensation).
func ShareNotificationWorkflow(ctx workflow.Context, input ShareNotificationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting share notification workflow", "client", input.ClientID, "listings", len(input.ListingIDs))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Create the share records
	var shareIDs []string
	err := workflow.ExecuteActivity(ctx, "CreateShares", input).Get(ctx, &shareIDs)
	if err != nil {
		return err
	}

	// Step 2: Deliver the push
	err = workflow.ExecuteActivity(ctx, "SendSharePush", input.ClientID, len(input.ListingIDs)).Get(ctx, nil)
	if err != nil {
		logger.Warn("share push failed, compensating", "error", err)
		// Compensate: remove the orphaned share records
		_ = workflow.ExecuteActivity(ctx, "DeleteShares", shareIDs).Get(ctx, nil)
		return err
	}

	// Step 3: Mark the shares notified
	err = workflow.ExecuteActivity(ctx, "MarkSharesNotified", shareIDs).Get(ctx, nil)
	if err != nil {
		return err
	}

	logger.Info("Share notification delivered", "shares", len(shareIDs))
	return nil
}
