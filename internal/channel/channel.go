// Package channel runs shell scripts on the Delta Sharing host through SSM.
// Dispatch is fire-and-forget: the command ID is returned for observability
// but execution is never awaited.
package channel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/wnkinc/delta-bridge/internal/apperr"
)

// SSMAPI lists the SDK calls the channel uses.
type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
}

// Channel dispatches shell commands to a single named instance.
type Channel struct {
	ssm        SSMAPI
	instanceID string
}

func New(api SSMAPI, instanceID string) *Channel {
	return &Channel{ssm: api, instanceID: instanceID}
}

// Run dispatches the given shell commands and returns the command ID.
func (c *Channel) Run(ctx context.Context, commands ...string) (string, error) {
	out, err := c.ssm.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:  []string{c.instanceID},
		DocumentName: aws.String("AWS-RunShellScript"),
		Parameters: map[string][]string{
			"commands": commands,
		},
	})
	if err != nil {
		return "", fmt.Errorf("send command to %s: %w: %w", c.instanceID, apperr.ErrChannel, err)
	}
	return aws.ToString(out.Command.CommandId), nil
}
