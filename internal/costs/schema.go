package costs

// DateColumn carries the competência of each billing row and drives every
// time-based view. TotalColumn is present in most exports but is always
// recomputed from the service columns so that figures stay internally
// consistent.
const (
	DateColumn  = "Serviço"
	TotalColumn = "Custos totais($)"
)

// CanonicalColumns is the full billing layout, in export order. Imports that
// miss some of these columns get them filled with zeros during normalization.
var CanonicalColumns = []string{
	DateColumn,
	"Relational Database Service($)",
	"Redshift($)",
	"S3($)",
	"Tax($)",
	"EC2-Instâncias($)",
	"Glue($)",
	"VPC($)",
	"EC2-Outros($)",
	"Support (Business)($)",
	"Direct Connect($)",
	"CloudWatch($)",
	"Athena($)",
	"DynamoDB($)",
	"SNS($)",
	"SQS($)",
	"KMS($)",
	"Elastic Load Balancing($)",
	"S3-Glacier($)",
	"ECR($)",
	"ECS($)",
	"Lambda($)",
	"API Gateway($)",
	"Route 53($)",
	"Transfer($)",
	"CloudTrail($)",
	"IAM($)",
	"Guard Duty($)",
	"Keyspaces($)",
	"Compute Optimizer($)",
	"Secrets Manager($)",
	"SES($)",
	"Backup($)",
	"Detective($)",
	"Inspector($)",
	"RDS-Outros($)",
	"FSx($)",
	"EFS($)",
	"Config($)",
	"Resource Groups Tagging($)",
	"Systems Manager($)",
	"Megatron($)",
	"IAM Identity Center($)",
	"CloudWatch Logs($)",
	"CloudShell($)",
	"Organization($)",
	"Resource Explorer($)",
	"CloudWatch Events($)",
	"WAF($)",
	"CloudFormation($)",
	"CodeArtifact($)",
	"Certificate Manager($)",
	TotalColumn,
}

// ServiceColumns returns the cost-bearing columns, excluding the date axis
// and the precomputed total.
func ServiceColumns() []string {
	out := make([]string, 0, len(CanonicalColumns)-2)
	for _, column := range CanonicalColumns {
		if column == DateColumn || column == TotalColumn {
			continue
		}
		out = append(out, column)
	}
	return out
}
