// The ingest Lambda: presigned dataset uploads, CSV-to-Delta conversion, and
// Delta Sharing catalog management, behind an HTTP API and an S3 notification.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/wnkinc/delta-bridge/internal/channel"
	"github.com/wnkinc/delta-bridge/internal/config"
	"github.com/wnkinc/delta-bridge/internal/controller"
	"github.com/wnkinc/delta-bridge/internal/convert"
	"github.com/wnkinc/delta-bridge/internal/objectstore"
	"github.com/wnkinc/delta-bridge/internal/sharing"
	"github.com/wnkinc/delta-bridge/internal/store"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = log.Level(cfg.LogLevel)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("load aws config")
	}

	s3Client := s3.NewFromConfig(awsCfg)
	objects := objectstore.New(s3Client, s3.NewPresignClient(s3Client), cfg.Bucket)
	datasets := store.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	commands := channel.New(ssm.NewFromConfig(awsCfg), cfg.DeltaInstanceID)

	converter := convert.New(objects, log)
	synchronizer := sharing.New(datasets, commands, sharing.Config{
		Bucket: cfg.Bucket,
		Host:   cfg.ShareHost,
		Port:   cfg.SharePort,
	}, log)

	ctrl := controller.New(datasets, objects, converter, synchronizer, log)
	lambda.Start(ctrl.Handle)
}
