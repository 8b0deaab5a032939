package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const charsetUTF8 = "UTF-8"

// SESConfig configures the AWS SES implementation.
type SESConfig struct {
	// Region is the AWS region.
	Region string
	// Endpoint overrides the AWS endpoint (localstack and friends).
	Endpoint string
	// AccessKey is the static access key ID; empty uses the default chain.
	AccessKey string
	// SecretKey is the static secret access key.
	SecretKey string
	// SessionToken is the optional session token.
	SessionToken string
	// From is the default sender when Message.From is empty.
	From string
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES is a Mail implementation backed by AWS Simple Email Service.
type SES struct {
	client      sesAPI
	defaultFrom string
}

// NewSES constructs an SES mail sender from the AWS default config chain.
func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	} else if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion("us-east-1"))
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("mail: load aws config: %w", err)
	}

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SES{client: client, defaultFrom: cfg.From}, nil
}

// Send delivers a message through SES.
func (s *SES) Send(ctx context.Context, msg Message) error {
	msg, err := prepare(msg, s.defaultFrom)
	if err != nil {
		return err
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String(charsetUTF8)}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charsetUTF8)}
	}

	_, err = s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
			Body:    body,
		},
	})
	if err != nil {
		var (
			rejected    *types.MessageRejected
			fromUnknown *types.MailFromDomainNotVerifiedException
		)
		if errors.As(err, &rejected) || errors.As(err, &fromUnknown) {
			return fmt.Errorf("%w: ses: %w", ErrRejected, err)
		}
		return fmt.Errorf("mail: ses send: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (s *SES) Close() error {
	return nil
}
