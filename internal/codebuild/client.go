package codebuild

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscb "github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"go.uber.org/zap"
)

// API is the subset of the CodeBuild client used by Client.
type API interface {
	StartBuild(ctx context.Context, params *awscb.StartBuildInput, optFns ...func(*awscb.Options)) (*awscb.StartBuildOutput, error)
	BatchGetBuilds(ctx context.Context, params *awscb.BatchGetBuildsInput, optFns ...func(*awscb.Options)) (*awscb.BatchGetBuildsOutput, error)
}

var _ API = (*awscb.Client)(nil)

// Client starts and inspects builds of a single CodeBuild project.
type Client struct {
	api     API
	project string
	region  string
	logger  *zap.Logger
}

// NewClient creates a Client for project in region.
func NewClient(api API, project, region string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:     api,
		project: project,
		region:  region,
		logger:  logger.Named("codebuild"),
	}
}

// NewFromConfig creates a Client backed by the AWS SDK.
func NewFromConfig(cfg aws.Config, project string, logger *zap.Logger) *Client {
	return NewClient(awscb.NewFromConfig(cfg), project, cfg.Region, logger)
}

// Project returns the CodeBuild project name.
func (c *Client) Project() string {
	return c.project
}

// StartBuild starts a build with the given environment overrides.
// Service errors are returned unchanged.
func (c *Client) StartBuild(ctx context.Context, env []EnvVar) (*Build, error) {
	overrides := make([]cbtypes.EnvironmentVariable, 0, len(env))
	for _, v := range env {
		overrides = append(overrides, cbtypes.EnvironmentVariable{
			Name:  aws.String(v.Name),
			Value: aws.String(v.Value),
			Type:  cbtypes.EnvironmentVariableTypePlaintext,
		})
	}

	out, err := c.api.StartBuild(ctx, &awscb.StartBuildInput{
		ProjectName:                  aws.String(c.project),
		EnvironmentVariablesOverride: overrides,
	})
	if err != nil {
		c.logger.Error("start build failed", zap.String("project", c.project), zap.Error(err))
		return nil, err
	}
	if out.Build == nil || aws.ToString(out.Build.Id) == "" {
		err := errors.New("start build returned no build id")
		c.logger.Error("start build failed", zap.String("project", c.project), zap.Error(err))
		return nil, err
	}

	b := toBuild(*out.Build)
	b.Logs = LogsURL(c.region, c.project, b.ID)
	c.logger.Info("build started", zap.String("build_id", b.ID), zap.String("logs", b.Logs))
	return b, nil
}

// GetBuild fetches a build by id. An empty id means there is nothing to
// fetch and returns nil without error.
func (c *Client) GetBuild(ctx context.Context, id string) (*Build, error) {
	if id == "" {
		return nil, nil
	}

	out, err := c.api.BatchGetBuilds(ctx, &awscb.BatchGetBuildsInput{
		Ids: []string{id},
	})
	if err != nil {
		c.logger.Error("batch get builds failed", zap.String("build_id", id), zap.Error(err))
		return nil, err
	}
	if len(out.Builds) == 0 {
		err := &BuildNotFoundError{ID: id}
		c.logger.Error("batch get builds failed", zap.String("build_id", id), zap.Error(err))
		return nil, err
	}

	b := toBuild(out.Builds[0])
	b.Logs = LogsURL(c.region, c.project, b.ID)
	c.logger.Debug("batch get builds", zap.String("build_id", b.ID), zap.String("status", string(b.Status)))
	return b, nil
}

func toBuild(b cbtypes.Build) *Build {
	return &Build{
		ID:     aws.ToString(b.Id),
		Status: Status(b.BuildStatus),
	}
}
