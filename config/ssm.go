package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadSSMParameters reads every parameter below path. Keys are the last path
// segment, uppercased, with dashes turned into underscores.
func LoadSSMParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string) (map[string]string, error) {
	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSM parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			params[parameterKey(aws.ToString(p.Name))] = aws.ToString(p.Value)
		}
	}

	return params, nil
}

func parameterKey(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// WithSSM overlays the parameters stored under SSM_PARAMETER_PATH onto c.
// Values already present in c win. Without SSM_PARAMETER_PATH it is a no-op.
func WithSSM(ctx context.Context, c map[string]string) error {
	path := GetString(c, "SSM_PARAMETER_PATH", "")
	if path == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	params, err := LoadSSMParameters(ctx, ssm.NewFromConfig(awsCfg), path)
	if err != nil {
		return err
	}

	Merge(c, params)
	return nil
}
