package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnkinc/delta-bridge/internal/apperr"
)

type fakeSSM struct {
	in  *ssm.SendCommandInput
	err error
}

func (f *fakeSSM) SendCommand(_ context.Context, in *ssm.SendCommandInput, _ ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.SendCommandOutput{
		Command: &ssmtypes.Command{CommandId: aws.String("cmd-42")},
	}, nil
}

func TestRun(t *testing.T) {
	api := &fakeSSM{}
	c := New(api, "i-0123456789abcdef0")

	id, err := c.Run(context.Background(), "echo hello", "systemctl restart delta-sharing")
	require.NoError(t, err)
	assert.Equal(t, "cmd-42", id)

	require.NotNil(t, api.in)
	assert.Equal(t, []string{"i-0123456789abcdef0"}, api.in.InstanceIds)
	assert.Equal(t, "AWS-RunShellScript", aws.ToString(api.in.DocumentName))
	assert.Equal(t, []string{"echo hello", "systemctl restart delta-sharing"}, api.in.Parameters["commands"])
}

func TestRunDispatchFailure(t *testing.T) {
	api := &fakeSSM{err: errors.New("throttled")}
	c := New(api, "i-0123456789abcdef0")

	_, err := c.Run(context.Background(), "echo hello")
	assert.ErrorIs(t, err, apperr.ErrChannel)
}
