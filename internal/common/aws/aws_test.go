package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct{ mock.Mock }

func (m *mockSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSESClient_SendText(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "alerts@example.com" &&
			assert.ObjectsAreEqual([]string{"risk@example.com"}, in.Destination.ToAddresses) &&
			awssdk.ToString(in.Message.Subject.Data) == "High risk" &&
			awssdk.ToString(in.Message.Body.Text.Data) == "body"
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil)

	id, err := NewSESClientWithAPI(api).SendText(context.Background(),
		"alerts@example.com", []string{"risk@example.com"}, "High risk", "body")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendTextError(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewSESClientWithAPI(api).SendText(context.Background(), "a@b.c", []string{"d@e.f"}, "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_PublishMessage(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes["riskBand"]
		return awssdk.ToString(in.TopicArn) == "arn:aws:sns:eu-west-1:123456789012:credit-risk" &&
			ok && awssdk.ToString(attr.StringValue) == "High"
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil)

	id, err := NewSNSClientWithAPI(api).PublishMessage(context.Background(),
		"arn:aws:sns:eu-west-1:123456789012:credit-risk", "High risk", "{}", map[string]string{"riskBand": "High"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	api.AssertExpectations(t)
}
