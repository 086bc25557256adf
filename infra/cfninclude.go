package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/cloudformationinclude"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// ImportedStack wraps an existing CloudFormation template with CDK. Teams
// migrating from the CloudFormation edition of the starter pack can keep
// deploying their templates through the same CDK app while moving
// resources over incrementally.
type ImportedStack struct {
	awscdk.Stack

	// Template is the included CloudFormation template.
	Template cloudformationinclude.CfnInclude
}

// ImportConfig configures an imported CloudFormation stack.
type ImportConfig struct {
	// StackName is the CloudFormation stack name.
	StackName string

	// TemplateFile is the path to the template, JSON or YAML.
	TemplateFile string

	// Parameters are CloudFormation parameter overrides.
	Parameters map[string]string

	// PreserveLogicalIds keeps the original logical IDs, which is required
	// when adopting a stack that already exists.
	PreserveLogicalIds bool

	// Tags are applied to all resources.
	Tags map[string]string
}

// NewImportedStack wraps an existing CloudFormation template in a CDK stack.
func NewImportedStack(scope constructs.Construct, config ImportConfig) *ImportedStack {
	stack := awscdk.NewStack(scope, jsii.String(config.StackName), &awscdk.StackProps{
		StackName: jsii.String(config.StackName),
		Tags:      convertTags(config.Tags),
	})

	props := &cloudformationinclude.CfnIncludeProps{
		TemplateFile:       jsii.String(config.TemplateFile),
		PreserveLogicalIds: jsii.Bool(config.PreserveLogicalIds),
	}

	if len(config.Parameters) > 0 {
		params := make(map[string]interface{}, len(config.Parameters))
		for k, v := range config.Parameters {
			params[k] = v
		}
		props.Parameters = &params
	}

	template := cloudformationinclude.NewCfnInclude(stack, jsii.String("Template"), props)

	return &ImportedStack{
		Stack:    stack,
		Template: template,
	}
}

// GetResource retrieves a resource from the included template by logical ID.
func (s *ImportedStack) GetResource(logicalID string) awscdk.CfnResource {
	return s.Template.GetResource(jsii.String(logicalID))
}

// GetNestedStack retrieves a nested stack from the included template.
func (s *ImportedStack) GetNestedStack(logicalID string) *cloudformationinclude.IncludedNestedStack {
	return s.Template.GetNestedStack(jsii.String(logicalID))
}
