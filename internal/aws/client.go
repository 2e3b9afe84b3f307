package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"

	awss3 "tasnim.dev/datalake-indexer/internal/aws/s3"
)

// ServiceClient bundles the AWS clients a run needs.
type ServiceClient struct {
	Config aws.Config
	S3     *awss3.Client
}

func NewServiceClient(ctx context.Context, profile, region string, opts ...awss3.Option) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &ServiceClient{
		Config: cfg,
		S3:     awss3.NewClient(awss3sdk.NewFromConfig(cfg), opts...),
	}, nil
}
