package kms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	awskms "github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

// AWSOracle derives shared secrets with AWS KMS DeriveSharedSecret.
type AWSOracle struct {
	client kmsiface.KMSAPI
	log    *slog.Logger
}

// NewAWSOracle creates a KMS client from the default credential chain.
// Empty region or endpoint fall back to the AWS environment and shared config.
func NewAWSOracle(region, endpoint string, log *slog.Logger) (*AWSOracle, error) {
	cfg := aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	log.Info("AWS KMS client configured",
		slog.String("region", aws.StringValue(sess.Config.Region)),
		slog.String("endpoint", endpoint))

	return NewAWSOracleWithClient(awskms.New(sess), log), nil
}

func NewAWSOracleWithClient(client kmsiface.KMSAPI, log *slog.Logger) *AWSOracle {
	return &AWSOracle{client: client, log: log}
}

func (o *AWSOracle) DeriveSharedSecret(ctx context.Context, keyID interfaces.KeyID, peerPublicKeyDER []byte) ([]byte, error) {
	out, err := o.client.DeriveSharedSecretWithContext(ctx, &awskms.DeriveSharedSecretInput{
		KeyId:                 aws.String(keyID.String()),
		KeyAgreementAlgorithm: aws.String(awskms.KeyAgreementAlgorithmSpecEcdh),
		PublicKey:             peerPublicKeyDER,
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			o.log.Debug("KMS DeriveSharedSecret rejected",
				slog.String("keyId", keyID.String()),
				slog.String("code", aerr.Code()),
				slog.String("message", aerr.Message()))
		}
		return nil, err
	}

	return out.SharedSecret, nil
}
