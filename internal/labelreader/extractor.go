package labelreader

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rtypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// TextExtractor turns an encoded label image into raw text
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// ExtractorFunc adapts a function to TextExtractor
type ExtractorFunc func(ctx context.Context, image []byte) (string, error)

// ExtractText calls f
func (f ExtractorFunc) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// DetectTextAPI is the part of the Rekognition client the extractor needs
type DetectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionExtractor reads label text with AWS Rekognition DetectText
type RekognitionExtractor struct {
	client        DetectTextAPI
	minConfidence float32
}

// NewRekognitionExtractor wraps an existing Rekognition client
func NewRekognitionExtractor(client DetectTextAPI, minConfidence float32) *RekognitionExtractor {
	return &RekognitionExtractor{client: client, minConfidence: minConfidence}
}

// NewRekognitionExtractorFromEnv builds a client from the default AWS
// credential chain for region
func NewRekognitionExtractorFromEnv(ctx context.Context, region string, minConfidence float32) (*RekognitionExtractor, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return NewRekognitionExtractor(rekognition.NewFromConfig(cfg), minConfidence), nil
}

// ExtractText joins the detected LINE entries with newlines. Word entries
// repeat the line text and are skipped.
func (e *RekognitionExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	out, err := e.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &rtypes.Image{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition DetectText failed: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type != rtypes.TextTypesLine {
			continue
		}
		if d.Confidence != nil && *d.Confidence < e.minConfidence {
			continue
		}
		lines = append(lines, aws.ToString(d.DetectedText))
	}
	return strings.Join(lines, "\n"), nil
}
