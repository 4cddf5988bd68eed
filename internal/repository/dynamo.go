package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"seoaudit/internal/config"
	"seoaudit/internal/models"
	"seoaudit/internal/tracing"
)

const (
	dbSystem      = "aws.dynamodb"
	jobsPartition = "audit"
)

// JobEntity represents a job as stored in DynamoDB. The report is kept as a JSON document.
type JobEntity struct {
	PartitionKey string     `dynamodbav:"partition_key"`
	ID           string     `dynamodbav:"id"`
	URL          string     `dynamodbav:"url"`
	Status       string     `dynamodbav:"status"`
	CreatedAt    time.Time  `dynamodbav:"created_at"`
	UpdatedAt    time.Time  `dynamodbav:"updated_at"`
	StartedAt    *time.Time `dynamodbav:"started_at"`
	CompletedAt  *time.Time `dynamodbav:"completed_at"`
	Report       string     `dynamodbav:"report,omitempty"`
}

// ToModel converts JobEntity to domain model
func (e *JobEntity) ToModel() (*models.Job, error) {
	job := &models.Job{
		ID:          e.ID,
		URL:         e.URL,
		Status:      models.JobStatus(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
	}
	if e.Report != "" {
		var report models.AuditReport
		if err := json.Unmarshal([]byte(e.Report), &report); err != nil {
			return nil, errors.Join(err, errors.New("failed to decode stored report"))
		}
		job.Report = &report
	}
	return job, nil
}

// FromModel converts domain model to JobEntity
func (e *JobEntity) FromModel(job *models.Job) error {
	e.PartitionKey = jobsPartition
	e.ID = job.ID
	e.URL = job.URL
	e.Status = string(job.Status)
	e.CreatedAt = job.CreatedAt
	e.UpdatedAt = job.UpdatedAt
	e.StartedAt = job.StartedAt
	e.CompletedAt = job.CompletedAt

	if job.Report != nil {
		b, err := json.Marshal(job.Report)
		if err != nil {
			return errors.Join(err, errors.New("failed to encode report"))
		}
		e.Report = string(b)
	}
	return nil
}

// NewDynamoDBClient creates a new DynamoDB client
func NewDynamoDBClient(cfg config.DynamoDBConfig) (*dynamodb.DynamoDB, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewCredentials(&credentials.StaticProvider{
			Value: credentials.Value{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
			},
		})
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return dynamodb.New(sess), nil
}

// DynamoJobRepository stores jobs in a DynamoDB table
type DynamoJobRepository struct {
	ddb   dynamodbiface.DynamoDBAPI
	table string
	mc    MetricsCollector
	log   *slog.Logger
	now   func() time.Time
}

// NewDynamoJobRepository creates a repository over table
func NewDynamoJobRepository(ddb dynamodbiface.DynamoDBAPI, table string, mc MetricsCollector, log *slog.Logger) *DynamoJobRepository {
	if mc == nil {
		mc = NoOpMetricsCollector{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &DynamoJobRepository{ddb: ddb, table: table, mc: mc, log: log, now: time.Now}
}

// SeedTable creates the jobs table if it doesn't exist
func (d *DynamoJobRepository) SeedTable(ctx context.Context) (err error) {
	_, err = d.ddb.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.table),
	})
	if err == nil {
		return nil
	}

	start := time.Now()
	defer func() { d.mc.RecordDatabaseOperation("create_table", d.table, start, err) }()

	_, err = d.ddb.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("partition_key"), KeyType: aws.String("HASH")},
			{AttributeName: aws.String("id"), KeyType: aws.String("RANGE")},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("partition_key"), AttributeType: aws.String("S")},
			{AttributeName: aws.String("id"), AttributeType: aws.String("S")},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeResourceInUseException {
			return nil
		}
		return err
	}

	d.log.Info("Created DynamoDB jobs table", slog.String("table", d.table))
	return nil
}

func (d *DynamoJobRepository) key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"partition_key": {S: aws.String(jobsPartition)},
		"id":            {S: aws.String(id)},
	}
}

func (d *DynamoJobRepository) CreateJob(ctx context.Context, job *models.Job) (err error) {
	start := time.Now()
	ctx, span := tracing.StartStoreSpan(ctx, dbSystem, "create_job", d.table)
	defer func() {
		d.mc.RecordDatabaseOperation("create_job", d.table, start, err)
		span.End(err)
	}()

	entity := &JobEntity{}
	if err = entity.FromModel(job); err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(entity)
	if err != nil {
		return err
	}

	_, err = d.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionFailed(err) {
		err = ErrJobExists
	}
	return err
}

func (d *DynamoJobRepository) GetJob(ctx context.Context, id string) (job *models.Job, err error) {
	start := time.Now()
	ctx, span := tracing.StartStoreSpan(ctx, dbSystem, "get_job", d.table)
	defer func() {
		d.mc.RecordDatabaseOperation("get_job", d.table, start, err)
		span.End(err)
	}()

	result, err := d.ddb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var entity JobEntity
	if err = dynamodbattribute.UnmarshalMap(result.Item, &entity); err != nil {
		return nil, err
	}
	return entity.ToModel()
}

// GetAllJobs returns every job, newest first
func (d *DynamoJobRepository) GetAllJobs(ctx context.Context) (jobs []*models.Job, err error) {
	start := time.Now()
	ctx, span := tracing.StartStoreSpan(ctx, dbSystem, "query_jobs", d.table)
	defer func() {
		d.mc.RecordDatabaseOperation("query_jobs", d.table, start, err)
		span.End(err)
	}()

	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("partition_key = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(jobsPartition)},
		},
		ScanIndexForward: aws.Bool(false),
	}

	var decodeErr error
	jobs = []*models.Job{}
	err = d.ddb.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, _ bool) bool {
		for _, item := range page.Items {
			var entity JobEntity
			if decodeErr = dynamodbattribute.UnmarshalMap(item, &entity); decodeErr != nil {
				return false
			}
			job, convErr := entity.ToModel()
			if convErr != nil {
				decodeErr = convErr
				return false
			}
			jobs = append(jobs, job)
		}
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJob changes status and report. Terminal jobs are never updated again.
func (d *DynamoJobRepository) UpdateJob(ctx context.Context, id string, status *models.JobStatus, report *models.AuditReport) (err error) {
	start := time.Now()
	ctx, span := tracing.StartStoreSpan(ctx, dbSystem, "update_job", d.table)
	defer func() {
		d.mc.RecordDatabaseOperation("update_job", d.table, start, err)
		span.End(err)
	}()

	current, err := d.getEntity(ctx, id)
	if err != nil {
		return err
	}
	job, err := current.ToModel()
	if err != nil {
		return err
	}
	if err = applyUpdate(job, status, report, d.now()); err != nil {
		return err
	}

	entity := &JobEntity{}
	if err = entity.FromModel(job); err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(entity)
	if err != nil {
		return err
	}

	// optimistic check against concurrent writers
	_, err = d.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.table),
		Item:                     item,
		ConditionExpression:      aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]*string{"#status": aws.String("status")},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status": {S: aws.String(current.Status)},
		},
	})
	if isConditionFailed(err) {
		err = ErrInvalidTransition
	}
	return err
}

func (d *DynamoJobRepository) getEntity(ctx context.Context, id string) (*JobEntity, error) {
	result, err := d.ddb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var entity JobEntity
	if err := dynamodbattribute.UnmarshalMap(result.Item, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func isConditionFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
